package http

import (
	"fmt"
	"testing"

	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/pkg/ssosdk"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"/profile", "/profile"},
		{"/sso/login?client_id=acme&redirect_url=https%3A%2F%2Facme.example%2Fcb", "/sso/login?client_id=acme&redirect_url=https%3A%2F%2Facme.example%2Fcb"},
		{"", "/fallback"},
		{"profile", "/fallback"},
		{"//evil.example/x", "/fallback"},
		{"/\\evil.example", "/fallback"},
		{"https://evil.example/", "/fallback"},
		{"javascript:alert(1)", "/fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.want, localPath(tt.raw, "/fallback"))
		})
	}
}

func TestInputMessage(t *testing.T) {
	err := fmt.Errorf("register: %w", fmt.Errorf("%w: password must be at least 8 characters", service.ErrInvalidInput))
	require.Equal(t, "password must be at least 8 characters", inputMessage(err))
	require.Equal(t, ssosdk.ErrInvalidRequest.Description, inputMessage(service.ErrInvalidInput))
}
