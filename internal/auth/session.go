package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (l *Local) writeSession(uid, email string) error {
	if l.opts.SessionPath == "" {
		return nil
	}
	now := l.now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    "fintrack",
			ExpiresAt: jwt.NewNumericDate(now.Add(l.opts.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(l.secret)
	if err != nil {
		return fmt.Errorf("signing session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.opts.SessionPath), 0o750); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(l.opts.SessionPath, []byte(signed), 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// readSession returns the uid stored in the session file. A missing file
// yields "" and no error.
func (l *Local) readSession() (string, error) {
	if l.opts.SessionPath == "" {
		return "", nil
	}
	raw, err := os.ReadFile(l.opts.SessionPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}

	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(string(raw)), claims,
		func(*jwt.Token) (any, error) { return l.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("fintrack"),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		return "", fmt.Errorf("validating session: %w", err)
	}
	return claims.Subject, nil
}

func (l *Local) clearSession() error {
	if l.opts.SessionPath == "" {
		return nil
	}
	if err := os.Remove(l.opts.SessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

func (l *Local) now() time.Time { return l.opts.Now() }
