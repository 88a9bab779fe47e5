package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	codeLength      = 8
	codeChars       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxUsernameLen  = 32
	jwtExpDays      = 365
	maxCodeAttempts = 10
)

// UserService handles user-related business logic
type UserService struct {
	users     UserStore
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: jwtSecret,
	}
}

// GenerateUniqueCode generates a unique 8-character code
func (s *UserService) GenerateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := generateCode()
		exists, err := s.users.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxCodeAttempts)
}

// generateCode generates a random 8-character uppercase code
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// Register creates a new user with a generated unique code and returns the
// user together with a signed session token.
func (s *UserService) Register(ctx context.Context, username string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", ErrEmptyUsername
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return nil, "", ErrUsernameTooLong
	}

	code, err := s.GenerateUniqueCode(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate code: %w", err)
	}

	user := &models.User{
		ID:         uuid.New().String(),
		Username:   username,
		UniqueCode: code,
		CreatedAt:  time.Now(),
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return user, token, nil
}

// LoginByCode authenticates a user by their unique code and returns the user
// together with a fresh session token.
func (s *UserService) LoginByCode(ctx context.Context, code string) (*models.User, string, error) {
	code = NormalizeCode(code)
	if len(code) != codeLength {
		return nil, "", ErrInvalidCode
	}

	user, err := s.users.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrInvalidCode
		}
		return nil, "", fmt.Errorf("failed to look up code: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// GetByID retrieves a user record.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Rename changes the username, the only mutable user field.
func (s *UserService) Rename(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return ErrUsernameTooLong
	}
	return s.users.UpdateUsername(ctx, userID, username)
}

// RegisterPushToken stores the device push token for a user. An empty token
// clears the registration.
func (s *UserService) RegisterPushToken(ctx context.Context, userID, pushToken string) error {
	var tok *string
	if pushToken != "" {
		tok = &pushToken
	}
	return s.users.UpdatePushToken(ctx, userID, tok)
}

// NormalizeCode uppercases and trims a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
