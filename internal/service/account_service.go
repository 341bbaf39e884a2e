package service

import (
	"context"
	"errors"
	"strings"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the persistence surface the account service needs
type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// AccountService handles registration and login
type AccountService struct {
	store  AccountStore
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store AccountStore, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{
		store:  store,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// RegisterRequest carries the registration form fields
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register creates a new user with a bcrypt-hashed password
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	switch {
	case strings.TrimSpace(req.Username) == "":
		return nil, missingField("username")
	case strings.TrimSpace(req.Email) == "":
		return nil, missingField("email")
	case req.Password == "":
		return nil, missingField("password")
	case req.Password != req.ConfirmPassword:
		return nil, &ValidationError{Field: "confirm_password", Reason: "passwords do not match"}
	}

	if taken, err := s.store.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, &ValidationError{Field: "username", Reason: "already exists"}
	}
	if taken, err := s.store.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, &ValidationError{Field: "email", Reason: "is already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost the race against a concurrent registration.
		if errors.Is(err, store.ErrDuplicateUser) {
			return nil, &ValidationError{Field: "username", Reason: "already exists"}
		}
		return nil, err
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username))
	return user, nil
}

// Login verifies the credentials and issues an access token
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.LoginsFailedTotal.Inc()
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.LoginsFailedTotal.Inc()
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
