package auth

import "fmt"

// CredentialError is returned when the service-account credential or its
// private key cannot be used. No network call is made after it is returned.
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential: %s: %v", e.Op, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// UpstreamAuthError is returned when the token endpoint rejects an assertion
// or answers with something other than an access token.
type UpstreamAuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("token exchange: %v", e.Err)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }
