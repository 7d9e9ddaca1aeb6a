// Package ssosdk is the Go client for the sso-server session API. Downstream
// applications use it to check sessions, refresh and sign out on behalf of
// their users, and to validate the grants they receive from the SSO
// redirect.
//
// The server uses the same package for its error and response shapes, so
// both sides agree on the wire format.
package ssosdk
