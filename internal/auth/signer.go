package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotRSAKey is wrapped by CredentialError when the key is valid PKCS#8 but
// not RSA.
var ErrNotRSAKey = errors.New("private key is not RSA")

// EncodeSegment returns the unpadded base64url encoding of b.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Sign imports pemKey and returns the base64url RS256 signature of payload.
func Sign(pemKey string, payload []byte) (string, error) {
	key, err := ParsePrivateKey(pemKey)
	if err != nil {
		return "", err
	}
	sig, err := jwt.SigningMethodRS256.Sign(string(payload), key)
	if err != nil {
		return "", &CredentialError{Op: "sign", Err: err}
	}
	return EncodeSegment(sig), nil
}

// ParsePrivateKey decodes a PEM encoded RSA private key. Keys copied through
// environment variables often carry literal "\n" sequences or lose their line
// breaks entirely; in that case the markers and whitespace are stripped and the
// body is decoded as raw PKCS#8.
func ParsePrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	normalized := strings.ReplaceAll(pemKey, `\n`, "\n")

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalized))
	if err == nil {
		return key, nil
	}
	if errors.Is(err, jwt.ErrNotRSAPrivateKey) {
		return nil, &CredentialError{Op: "parse private key", Err: ErrNotRSAKey}
	}

	der, derr := base64.StdEncoding.DecodeString(stripPEM(normalized))
	if derr != nil {
		return nil, &CredentialError{Op: "parse private key", Err: err}
	}
	parsed, perr := x509.ParsePKCS8PrivateKey(der)
	if perr != nil {
		return nil, &CredentialError{Op: "parse private key", Err: perr}
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, &CredentialError{Op: "parse private key", Err: ErrNotRSAKey}
	}
	return rsaKey, nil
}

// stripPEM removes "-----BEGIN ...-----" / "-----END ...-----" markers and all
// whitespace. Markers split the input on "-----", so the marker labels sit at
// odd indexes.
func stripPEM(s string) string {
	var b strings.Builder
	for i, part := range strings.Split(s, "-----") {
		if i%2 == 1 {
			continue
		}
		b.WriteString(part)
	}
	return strings.Join(strings.Fields(b.String()), "")
}
