package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spark/internal/models"
	"spark/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor (2^10 iterations) for password hashes.
const bcryptCost = 10

// Token type claim values. A refresh token presented where an access token
// is expected fails verification, and vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AuthService handles signup, login, token issuing and token verification.
type AuthService struct {
	userRepo      repositories.UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewAuthService creates a new AuthService. Access tokens are short-lived
// (1 hour); refresh tokens are long-lived (7 days) and only good for minting
// new access tokens.
func NewAuthService(userRepo repositories.UserRepository, accessSecret, refreshSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Hour,
		refreshTTL:    7 * 24 * time.Hour,
	}
}

// SignupInput is the payload for account creation.
type SignupInput struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Username     string `json:"username" validate:"required,min=3,max=20"`
	Category     string `json:"category" validate:"required"`
	ProfilePhoto string `json:"profilePhoto"`
}

// AuthResult carries the tokens and the password-free user returned by
// signup and login.
type AuthResult struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

// Signup registers a new user with defaulted page settings and issues an
// access and a refresh token.
//
// The uniqueness pre-check below is advisory: two concurrent signups with the
// same email or username can both pass it, and the database unique index
// decides the race. Either path surfaces repositories.ErrDuplicateKey.
func (s *AuthService) Signup(input SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if existing, err := s.userRepo.GetByEmailOrUsername(email, username); err == nil && existing != nil {
		if existing.Email == email {
			return nil, fmt.Errorf("%w: email is already registered", repositories.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("%w: username is already taken", repositories.ErrDuplicateKey)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashing, err)
	}

	profilePhoto := strings.TrimSpace(input.ProfilePhoto)
	if profilePhoto == "" {
		profilePhoto = models.DefaultProfilePhoto
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Username:     username,
		Password:     string(hashed),
		Category:     strings.TrimSpace(input.Category),
		ProfilePhoto: profilePhoto,
		Bio:          "",
		BannerColor:  models.DefaultBannerColor,
		Appearance:   models.DefaultAppearance(),
		Links:        []models.LinkItem{},
		Shops:        []models.ShopItem{},
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Login authenticates by email and password. An unknown email and a wrong
// password return the identical ErrInvalidCredentials.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh verifies a refresh token and mints a fresh access token without
// re-checking credentials.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	userID, err := s.verifyToken(refreshToken, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.signToken(userID, tokenTypeAccess, s.accessTTL, s.accessSecret)
}

// CurrentUser resolves a verified subject id to its user record. Returns
// repositories.ErrNotFound when the token outlived the account.
func (s *AuthService) CurrentUser(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// ValidateAccessToken verifies an access token and returns the subject id.
func (s *AuthService) ValidateAccessToken(tokenString string) (string, error) {
	return s.verifyToken(tokenString, s.accessSecret, tokenTypeAccess)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResult, error) {
	accessToken, err := s.signToken(user.ID, tokenTypeAccess, s.accessTTL, s.accessSecret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signToken(user.ID, tokenTypeRefresh, s.refreshTTL, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	user.Password = ""
	return &AuthResult{
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) signToken(userID, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID,
		"token_type": tokenType,
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return tokenString, nil
}

// verifyToken checks signature, expiry and token type, returning the subject
// id. Expired tokens are reported distinctly from malformed or forged ones.
func (s *AuthService) verifyToken(tokenString string, secret []byte, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != wantType {
		return "", ErrTokenInvalid
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", ErrTokenInvalid
	}
	return userID, nil
}
