package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thejerf/abtime"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTIssuer signs and verifies HS256 bearer tokens.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  abtime.AbstractTime
}

func NewJWTIssuer(secret []byte, issuer string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		clock:  abtime.NewRealTime(),
	}
}

// WithClock replaces the clock used for iat, exp and verification.
func (i *JWTIssuer) WithClock(clock abtime.AbstractTime) *JWTIssuer {
	i.clock = clock
	return i
}

// Issue returns a signed token for subject and its lifetime in seconds.
func (i *JWTIssuer) Issue(ctx context.Context, subject string) (string, int64, error) {
	now := i.clock.Now()
	exp := now.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"iss": i.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, err
	}

	return s, int64(i.ttl.Seconds()), nil
}

// Verify checks signature, issuer and expiry and returns the subject.
func (i *JWTIssuer) Verify(raw string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	token, err := parser.Parse(raw, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}
