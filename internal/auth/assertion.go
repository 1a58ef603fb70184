package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// StorageScope grants read/write access to Cloud Storage objects.
	StorageScope = "https://www.googleapis.com/auth/devstorage.read_write"

	assertionTTL = 3600 * time.Second
)

// Claims is the payload of a jwt-bearer assertion. Audience is a single
// string: the token endpoint rejects the array form.
type Claims struct {
	Issuer    string           `json:"iss"`
	Scope     string           `json:"scope"`
	Audience  string           `json:"aud"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
}

var _ jwt.Claims = Claims{}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c Claims) GetSubject() (string, error)                  { return "", nil }

func (c Claims) GetAudience() (jwt.ClaimStrings, error) {
	if c.Audience == "" {
		return nil, nil
	}
	return jwt.ClaimStrings{c.Audience}, nil
}

// NewClaims returns the claims for sa, valid for one hour from now. audience is
// the token endpoint that will receive the assertion.
func NewClaims(sa *ServiceAccount, audience string, now time.Time) Claims {
	iat := now.Truncate(time.Second)
	return Claims{
		Issuer:    sa.ClientEmail,
		Scope:     StorageScope,
		Audience:  audience,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(assertionTTL)),
	}
}

// BuildAssertion returns header.payload.signature for sa. The private key is
// imported for this call only.
func BuildAssertion(sa *ServiceAccount, audience string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, NewClaims(sa, audience, now))

	signingString, err := token.SigningString()
	if err != nil {
		return "", &CredentialError{Op: "encode assertion", Err: err}
	}

	sig, err := Sign(sa.PrivateKey, []byte(signingString))
	if err != nil {
		return "", err
	}

	return signingString + "." + sig, nil
}
