package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// JWTBearerGrant is the OAuth grant type for service-account assertions.
const JWTBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// maxErrorBody bounds how much of a rejected response is kept for logging.
const maxErrorBody = 4 << 10

// TokenSource yields a bearer token for a single upload.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenExchanger trades signed assertions for access tokens.
type TokenExchanger struct {
	client   *http.Client
	tokenURL string
}

// NewTokenExchanger creates a TokenExchanger posting to tokenURL. A nil client
// uses http.DefaultClient.
func NewTokenExchanger(client *http.Client, tokenURL string) *TokenExchanger {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenExchanger{client: client, tokenURL: tokenURL}
}

// TokenURL is the endpoint assertions must name as their audience.
func (e *TokenExchanger) TokenURL() string {
	return e.tokenURL
}

// Exchange posts assertion with the jwt-bearer grant and returns access_token.
func (e *TokenExchanger) Exchange(ctx context.Context, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", JWTBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &UpstreamAuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &UpstreamAuthError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &UpstreamAuthError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", &UpstreamAuthError{Err: errors.New("token response missing access_token")}
	}
	return payload.AccessToken, nil
}

// ServiceAccountTokenSource signs a fresh assertion and exchanges it on every
// call. Tokens are never reused across uploads.
type ServiceAccountTokenSource struct {
	credentialJSON []byte
	exchanger      *TokenExchanger
	now            func() time.Time
}

// NewServiceAccountTokenSource creates a TokenSource for the raw credential
// blob. The blob is parsed on each Token call, so a malformed credential
// surfaces as a CredentialError at upload time.
func NewServiceAccountTokenSource(credentialJSON []byte, exchanger *TokenExchanger) *ServiceAccountTokenSource {
	return &ServiceAccountTokenSource{
		credentialJSON: credentialJSON,
		exchanger:      exchanger,
		now:            time.Now,
	}
}

// Token implements TokenSource.
func (s *ServiceAccountTokenSource) Token(ctx context.Context) (string, error) {
	sa, err := ParseServiceAccount(s.credentialJSON)
	if err != nil {
		return "", err
	}

	assertion, err := BuildAssertion(sa, s.exchanger.TokenURL(), s.now())
	if err != nil {
		return "", err
	}

	return s.exchanger.Exchange(ctx, assertion)
}
