// Package auth handles operator login and session tokens. Passwords are
// bcrypt hashes in the users collection; a successful login issues an HS256
// JWT carrying the cashier's username and role.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-till/internal/model"
	"pos-till/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload for an operator session.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates operators against the users collection.
type Service struct {
	users  store.Store[model.User]
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates an authentication service.
func NewService(users store.Store[model.User], secret string, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With().Str("service", "auth").Logger(),
		now:    time.Now,
	}
}

// HashPassword returns the bcrypt hash for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the credentials and issues a session token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	users, err := s.users.LoadAll(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load users: %w", err)
	}

	var user *model.User
	for i := range users {
		if users[i].Username == username {
			user = &users[i]
			break
		}
	}
	if user == nil {
		s.logger.Warn().Str("username", username).Msg("login attempt for unknown user")
		return "", nil, model.ErrUnauthorised
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("username", username).Msg("login attempt with wrong password")
		return "", nil, model.ErrUnauthorised
	}

	issued := s.now()
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(issued),
			Issuer:    "pos-till",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Str("role", user.Role).Msg("operator logged in")
	return token, user, nil
}

// VerifyToken parses and validates a session token.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, model.ErrUnauthorised
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, model.ErrUnauthorised
	}
	return claims, nil
}

// EnsureDefaultAdmin creates an admin account when the users collection is
// empty, so a fresh installation can be logged into at all.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	users, err := s.users.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	users = append(users, model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if err := s.users.SaveAll(ctx, users); err != nil {
		return fmt.Errorf("failed to save default admin: %w", err)
	}

	s.logger.Warn().
		Str("username", username).
		Msg("no users found, created default admin account; change its password")
	return nil
}
