package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/auth"
	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/data"
	"github.com/PaulBabatuyi/semx/internal/normalize"
)

// DefaultRating is given to newly registered users.
const DefaultRating = 5.0

// AuthService registers users, checks credentials and verifies tokens.
type AuthService struct {
	users  *data.UsersStore
	jwt    *auth.JWTManager
	clock  clock.Clock
	logger *slog.Logger
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required"`
	CollegeEmail string `json:"collegeEmail" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User      data.PublicUser
	Token     string
	ExpiresAt time.Time
}

// Register creates a user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = normalize.Text(in.Name)
	in.Email = normalize.Email(in.Email)
	in.CollegeEmail = normalize.Email(in.CollegeEmail)
	if err := checkInput(in, "All fields are required", nil); err != nil {
		return nil, err
	}

	// checked again atomically by CreateUser
	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("Email already registered")
	} else if !errors.Is(err, data.ErrUserNotFound) {
		return nil, storeError(err, "Registration failed")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Registration failed", err)
	}

	user, err := s.users.CreateUser(ctx, data.User{
		Name:         in.Name,
		Email:        in.Email,
		CollegeEmail: in.CollegeEmail,
		Password:     hashed,
		Avatar:       data.DefaultAvatar(in.Name),
		Rating:       DefaultRating,
		IsAvailable:  false,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		return nil, storeError(err, "Registration failed")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.session(user, "Registration failed")
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Auth("Invalid credentials")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, data.ErrUserNotFound) {
		return nil, apperr.Auth("Invalid credentials")
	}
	if err != nil {
		return nil, storeError(err, "Login failed")
	}

	if err := auth.CheckPassword(user.Password, in.Password); err != nil {
		return nil, apperr.Auth("Invalid credentials")
	}

	return s.session(user, "Login failed")
}

func (s *AuthService) session(user *data.User, fallback string) (*Session, error) {
	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal(fallback, err)
	}
	return &Session{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a bearer token. An empty token is an auth error;
// a present but invalid or expired token is an invalid-token error.
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Auth("Access token required")
	}
	claims, err := s.jwt.VerifyToken(token)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
		return nil, apperr.InvalidToken("Invalid token")
	}
	return claims, nil
}

// Me returns the caller's public profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*data.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to get user")
	}
	pub := user.Public()
	return &pub, nil
}
