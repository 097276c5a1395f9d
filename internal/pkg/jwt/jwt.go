package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	defaultSecret = "changethis"

	purposeAccess        = "access"
	purposePasswordReset = "password_reset"
)

var secret = []byte(defaultSecret)

// ErrWrongPurpose is returned when a token signed for one flow is presented to another.
var ErrWrongPurpose = errors.New("token purpose mismatch")

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// Claims is the JWT payload. Subject carries the user id for access tokens
// and the email for password reset tokens.
type Claims struct {
	Purpose string `json:"pur,omitempty"`
	jwtlib.RegisteredClaims
}

// UserID returns the subject of an access token.
func (c *Claims) UserID() string { return c.Subject }

// Sign creates a signed access token for the given user ID.
func Sign(userID string, ttl time.Duration) (string, error) {
	return sign(userID, purposeAccess, ttl)
}

// Parse validates an access token and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purposeAccess {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// SignPasswordReset creates a token that authorizes a password reset for email.
func SignPasswordReset(email string, ttl time.Duration) (string, error) {
	return sign(email, purposePasswordReset, ttl)
}

// ParsePasswordReset returns the email a reset token was issued for.
func ParsePasswordReset(tokenStr string) (string, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposePasswordReset {
		return "", ErrWrongPurpose
	}
	return claims.Subject, nil
}

func sign(subject, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			NotBefore: jwtlib.NewNumericDate(now),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
