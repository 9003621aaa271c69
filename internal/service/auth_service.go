package service

import (
	"context"
	"errors"
	"time"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"
	"github.com/ParkerJahn/sweatsheet-web/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrHashingFailed       = errors.New("failed to hash password")
	ErrTokenGeneration     = errors.New("failed to generate authentication token")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// TokenPair is the access/refresh token pair returned on login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Token type markers carried in the "typ" claim so an access token can never
// be replayed as a refresh token or vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// --- Service Interface ---
type AuthService interface {
	// Register creates the full User+Profile+Calendar aggregate atomically.
	Register(ctx context.Context, username, email, firstName, lastName, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetJWTSecret() string
}

// --- Service Implementation ---

type authService struct {
	userRepo          repository.UserRepository
	jwtSecret         string
	accessExpiration  time.Duration
	refreshExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpiration, refreshExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if accessExpiration <= 0 {
		accessExpiration = time.Hour
	}
	if refreshExpiration <= 0 {
		refreshExpiration = 24 * time.Hour
	}
	return &authService{
		userRepo:          userRepo,
		jwtSecret:         jwtSecret,
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
	}
}

// Register handles new user registration. The profile (with role, defaulting
// to ATHLETE) and an empty calendar are created in the same write as the user.
func (s *authService) Register(ctx context.Context, username, email, firstName, lastName, password string, role domain.Role) (*domain.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrValidation
	}
	if role == "" {
		role = domain.RoleAthlete
	}
	switch role {
	case domain.RolePro, domain.RoleTeamMember, domain.RoleAthlete:
	default:
		return nil, ErrValidation
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hashedPassword),
		Profile:      domain.Profile{Role: role},
		Calendar:     domain.Calendar{Events: map[string][]domain.CalendarEvent{}},
	}

	// The unique indexes are the arbiter; a racing duplicate registration
	// fails here with the right error instead of creating a second profile.
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates by username and issues an access/refresh token pair.
func (s *authService) Login(ctx context.Context, username, password string) (*TokenPair, *domain.User, error) {
	if username == "" || password == "" {
		return nil, nil, ErrValidation
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAuthenticationFailed
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrAuthenticationFailed
	}

	pair, err := s.generatePair(user.ID.Hex(), user.Profile.Role)
	if err != nil {
		return nil, nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return pair, user, nil
}

// Refresh validates a refresh token and issues a fresh pair.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidRefreshToken
	}
	if claims.TokenType != tokenTypeRefresh || claims.UserID == "" {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.generatePair(claims.UserID, claims.Role)
	if err != nil {
		return nil, ErrTokenGeneration
	}
	return pair, nil
}

// --- JWT Helpers ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID    string      `json:"uid"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

func (s *authService) generatePair(userID string, role domain.Role) (*TokenPair, error) {
	access, err := s.generateToken(userID, role, tokenTypeAccess, s.accessExpiration)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(userID, role, tokenTypeRefresh, s.refreshExpiration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *authService) generateToken(userID string, role domain.Role, tokenType string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sweatsheet-web",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
