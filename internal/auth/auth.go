package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both an unknown user and a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokensDisabled is returned when no JWT secret is configured
	ErrTokensDisabled = errors.New("token authentication is not configured")
)

// Claims are carried in every issued token
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and checks tokens and owns the user accounts
type Service struct {
	users      db.UserStore
	secret     []byte
	expiration time.Duration
	required   bool

	defaultUserID int64
	now           func() time.Time
}

// NewService creates a new auth Service
func NewService(users db.UserStore, cfg config.AuthConfig) *Service {
	expiration := cfg.TokenExpiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &Service{
		users:         users,
		secret:        []byte(cfg.JWTSecret),
		expiration:    expiration,
		required:      cfg.Required,
		defaultUserID: 1,
		now:           time.Now,
	}
}

// TokensEnabled reports whether a secret is configured
func (s *Service) TokensEnabled() bool {
	return len(s.secret) > 0
}

// DefaultUserID is the identity of requests without a token
func (s *Service) DefaultUserID() int64 {
	return s.defaultUserID
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a password against a bcrypt hash
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// EnsureDefaultUser returns the named user, creating it on first start.
// Requests without a token act as this user.
func (s *Service) EnsureDefaultUser(ctx context.Context, username, password string) (*db.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		hash, hashErr := HashPassword(password)
		if hashErr != nil {
			return nil, hashErr
		}
		user, err = s.users.CreateUser(ctx, username, hash)
		if errors.Is(err, db.ErrUserExists) {
			user, err = s.users.GetUserByUsername(ctx, username)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to seed default user: %w", err)
	}

	s.defaultUserID = user.ID
	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": user.ID}).Info("Default user ready")
	return user, nil
}

// Register creates an account and returns it with a fresh token
func (s *Service) Register(ctx context.Context, username, password string) (*db.User, string, error) {
	if !s.TokensEnabled() {
		return nil, "", ErrTokensDisabled
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		return nil, "", err
	}
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	logger.Log.WithField("username", username).Info("User registered successfully")
	return user, token, nil
}

// Login checks the credentials and returns a token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if !s.TokensEnabled() {
		return "", ErrTokensDisabled
	}
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		logger.Log.WithField("username", username).Warn("Login failed: user not found")
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		logger.Log.WithField("username", username).Warn("Login failed: invalid password")
		return "", ErrInvalidCredentials
	}
	logger.Log.WithField("username", username).Info("User logged in successfully")
	return s.GenerateToken(user)
}

// GenerateToken signs a token for user
func (s *Service) GenerateToken(user *db.User) (string, error) {
	if !s.TokensEnabled() {
		return "", ErrTokensDisabled
	}
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and verifies a token
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if !s.TokensEnabled() {
		return nil, ErrTokensDisabled
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
