package ssosdk

import "time"

// ErrorResponse is the JSON body of an APIError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SessionResponse is returned by GET /api/session.
type SessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`

	// ExpiresAt is the expiry of the access token now in effect.
	ExpiresAt time.Time `json:"expiresAt"`
}

// RefreshRequest is the optional body of POST /api/auth/refresh. The
// refreshToken cookie is used when it is empty.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// RefreshResponse is returned by POST /api/auth/refresh. The new refresh
// token is only delivered as a cookie.
type RefreshResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type SignOutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse always comes back with 200; Valid carries the answer.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// UserResponse is a user profile. It never includes the password hash.
type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage,omitempty"`
	GoogleID     string    `json:"googleId,omitempty"`
	FacebookID   string    `json:"facebookId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UpdateUserRequest changes profile fields. Omitted or empty fields are
// left alone.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// ReturnURL is followed after sign-in when it is a local path.
	ReturnURL string `json:"return_url,omitempty"`
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

type ValidateEmailRequest struct {
	Email string `json:"email"`
}

type ValidateEmailResponse struct {
	Email   string `json:"email"`
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Registry string `json:"registry"`
	Ledger   string `json:"ledger"`
}
