package adminauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionDuration is the fixed validity window of an admin session token. The
// token is purely advisory: there is no server-side revocation.
const SessionDuration = 8 * time.Hour

const issuer = "cognito-admin"

// Admin identifies a logged-in administrator.
type Admin struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is a successful login result.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Admin     Admin     `json:"admin"`
}

type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Service validates administrator credentials against the profile store and
// issues time-bounded session tokens.
type Service struct {
	store     CredentialStore
	jwtSecret []byte
}

// NewService creates an admin session gate.
func NewService(store CredentialStore, jwtSecret string) *Service {
	return &Service{store: store, jwtSecret: []byte(jwtSecret)}
}

// Login checks the email/password pair against the credential store and, on
// success, returns the admin identity plus a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	cred, found, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin %s: %w", email, err)
	}
	if !found {
		slog.Warn("Admin not found", "email", email)
		return nil, ErrInvalidCredentials
	}
	if cred.Password != password {
		slog.Warn("Admin password mismatch", "email", email)
		return nil, ErrInvalidCredentials
	}

	name := cred.Name
	if name == "" {
		name = "Admin User"
	}

	now := time.Now().UTC()
	expiresAt := now.Add(SessionDuration)
	claims := sessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		slog.Error("Failed to sign session token", "email", email, "err", err)
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	slog.Info("Admin logged in", "email", email)
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Admin:     Admin{Name: name, Email: email},
	}, nil
}

// Verify parses and validates a session token, returning the admin identity.
func (s *Service) Verify(tokenStr string) (*Admin, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return &Admin{Name: claims.Name, Email: claims.Subject}, nil
}
