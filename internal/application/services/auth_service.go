package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// ErrSessionRevoked is returned for tokens issued before the last logout
var ErrSessionRevoked = errors.New("session has been revoked")

// sessionClaims is the payload of the signed session cookie
type sessionClaims struct {
	Username string `json:"username"`
	Version  int    `json:"ver"`
	jwt.RegisteredClaims
}

// AuthService handles login and session token verification
type AuthService struct {
	userRepo      ports.UserRepository
	sessionConfig config.SessionConfig
	logger        *logger.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, sessionConfig config.SessionConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionConfig: sessionConfig,
		logger:        logger,
	}
}

// Login checks the credentials and returns the user with a signed session token
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*entities.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			s.logger.Warnw("Login attempt with unknown username", "username", req.Username)
			return nil, "", entities.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordDigest(req.Password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "username", req.Username, "user_id", user.ID)
		return nil, "", entities.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	s.logger.Infow("User logged in successfully", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// ValidateToken verifies the signature and expiry of a session token
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.sessionConfig.Secret), nil
	}, jwt.WithIssuer(s.sessionConfig.Issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}

	return &ports.Claims{
		UserID:   userID,
		Username: claims.Username,
		Version:  claims.Version,
	}, nil
}

// ResolveUser returns the user a valid session token belongs to
func (s *AuthService) ResolveUser(ctx context.Context, tokenString string) (*entities.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.SessionVersion != claims.Version {
		return nil, ErrSessionRevoked
	}
	return user, nil
}

// Logout revokes every session token issued to the user so far
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.userRepo.BumpSessionVersion(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.LogUserAction(userID, "logout", nil)
	return nil
}

func (s *AuthService) generateToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Username: user.Username,
		Version:  user.SessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.sessionConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionConfig.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.sessionConfig.Secret))
}

// HashPassword returns the bcrypt hash of a plain password of any length
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(passwordDigest(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// passwordDigest fits the password into bcrypt's 72-byte input limit
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
