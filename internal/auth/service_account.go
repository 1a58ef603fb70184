// Package auth signs service-account assertions and exchanges them for
// short-lived OAuth access tokens.
package auth

import (
	"encoding/json"
	"errors"
	"strings"
)

// ServiceAccount is the subset of a Google service-account key file used to
// authenticate uploads.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccount decodes a service-account JSON blob. Both client_email
// and private_key are required.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, &CredentialError{Op: "parse service account", Err: err}
	}
	if strings.TrimSpace(sa.ClientEmail) == "" {
		return nil, &CredentialError{Op: "parse service account", Err: errors.New("client_email is required")}
	}
	if strings.TrimSpace(sa.PrivateKey) == "" {
		return nil, &CredentialError{Op: "parse service account", Err: errors.New("private_key is required")}
	}
	return &sa, nil
}
