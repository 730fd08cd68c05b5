// Package auth issues and verifies the bearer tokens protecting the
// preference endpoints. Tokens are HS256 JWTs carrying the user id as
// subject.
package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"newsagg/internal/models"
	"newsagg/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "newsagg"

// ContextUserKey holds the authenticated user id in the gin context.
const ContextUserKey = "auth_user_id"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	storage storage.Storage
	secret  []byte
	ttl     time.Duration
}

func NewService(store storage.Storage, secret string, ttl time.Duration) *Service {
	return &Service{
		storage: store,
		secret:  []byte(secret),
		ttl:     ttl,
	}
}

// Register creates a user with a bcrypt password hash and returns the
// user together with a fresh token.
func (s *Service) Register(name, email, password string) (*models.User, string, error) {
	if _, err := s.storage.GetUserByEmail(email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.storage.CreateUser(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh
// token. Unknown emails and wrong passwords report the same error.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	user, err := s.storage.GetUserByEmail(email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the user id carried by a valid token.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", ErrInvalidToken
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || tokenClaims.Subject == "" {
		return "", ErrInvalidToken
	}
	return tokenClaims.Subject, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		userID, err := s.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// OptionalAuth attaches the user id when a valid bearer token is
// present and lets everything else through as anonymous.
func (s *Service) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token != "" {
			userID, err := s.VerifyToken(token)
			if err == nil {
				c.Set(ContextUserKey, userID)
			} else {
				log.Printf("Ignoring invalid bearer token on %s", c.Request.URL.Path)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from the gin context, if
// any.
func UserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
