package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fiskara/taxchat/internal/config"
	"github.com/fiskara/taxchat/internal/domain"
)

// UserService handles registration, login and profile reads. New accounts
// start with a full message allowance.
type UserService struct {
	store        UserStore
	jwtSecret    []byte
	defaultLimit int
	tokenTTL     time.Duration
}

func NewUserService(store UserStore, jwtSecret string, defaultLimit int) *UserService {
	return &UserService{
		store:        store,
		jwtSecret:    []byte(jwtSecret),
		defaultLimit: defaultLimit,
		tokenTTL:     config.TokenTTL,
	}
}

func (s *UserService) Register(ctx context.Context, username, email, password, jobTitle string) (*domain.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.store.Create(ctx, username, email, string(hash), jobTitle, s.defaultLimit)
}

// Login verifies the credentials and issues a signed bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.GetByID(ctx, userID)
}

func (s *UserService) issueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
