// Package auth verifies the bearer tokens that guard the ingestion endpoint.
// Tokens are HS256 JWTs signed with AUTH_JWT_SECRET and must carry an
// expiry. Operators mint them with `newsctl token`.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is 256 bits of HS256 key material.
const MinSecretLength = 32

var (
	// ErrWeakSecret is returned for secrets that are too short or well known.
	ErrWeakSecret = errors.New("jwt secret is too weak")
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken covers bad signatures, algorithms, expiry and claims.
	ErrInvalidToken = errors.New("invalid token")
)

// よく使われる弱い値（繰り返し・数字付きも含めて拒否）
var weakSecrets = []string{"secret", "password", "test", "admin", "default", "changeme"}

// ValidateSecret rejects secrets shorter than MinSecretLength or built from
// a common weak word.
func ValidateSecret(secret string) error {
	if len(secret) < MinSecretLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakSecret, MinSecretLength)
	}
	lower := strings.ToLower(secret)
	stripped := strings.Trim(lower, "0123456789-_")
	for _, weak := range weakSecrets {
		if stripped == weak || strings.Repeat(weak, len(lower)/len(weak)) == lower {
			return fmt.Errorf("%w: must not be a common value", ErrWeakSecret)
		}
	}
	return nil
}

// Verifier checks HS256 bearer tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a Verifier after validating secret.
func NewVerifier(secret string) (*Verifier, error) {
	if err := ValidateSecret(secret); err != nil {
		return nil, err
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify parses an Authorization header value and returns the token subject.
func (v *Verifier) Verify(authz string) (string, error) {
	const prefix = "Bearer "
	if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	raw := strings.TrimSpace(authz[len(prefix):])
	if raw == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// IssueToken signs an HS256 token for subject that expires after ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %v", ttl)
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return tok.SignedString([]byte(secret))
}
