package service

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/storefront/internal/apperror"
	"github.com/Baaaki/storefront/internal/metrics"
	"github.com/Baaaki/storefront/internal/models"
	"github.com/Baaaki/storefront/internal/repository"
	"github.com/Baaaki/storefront/internal/utils"
	"github.com/Baaaki/storefront/internal/validation"
	"github.com/Baaaki/storefront/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("Invalid username or password.")
	ErrInvalidToken       = apperror.Unauthorized("Invalid token.")
)

type AuthService struct {
	users         *repository.UserRepository
	hasher        utils.PasswordHasher
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(users *repository.UserRepository, hasher utils.PasswordHasher, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		hasher:        hasher,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Signup creates the user and issues a token for it.
func (s *AuthService) Signup(ctx context.Context, in models.CreateUser) (auth *models.Auth, err error) {
	start := time.Now()
	defer func() { metrics.ObserveAuth("signup", err) }()

	user, err := s.users.Create(ctx, in)
	if err != nil {
		logger.Log.Warn("Signup failed", zap.String("username", in.Username), zap.Error(err))
		return nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User signed up",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)
	return &models.Auth{User: user, Token: token}, nil
}

// Signin checks the credentials and issues a token. An unknown username
// surfaces the repository's not found error.
func (s *AuthService) Signin(ctx context.Context, in models.Signin) (auth *models.Auth, err error) {
	start := time.Now()
	defer func() { metrics.ObserveAuth("signin", err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.ShowByUsername(ctx, in.Username)
	if err != nil {
		logger.Log.Warn("Signin failed: user lookup", zap.String("username", in.Username), zap.Error(err))
		return nil, err
	}

	verifyStart := time.Now()
	valid, err := s.hasher.VerifyPassword(in.Password, user.Password)
	if err != nil {
		logger.Log.Error("Failed to verify password", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	if !valid {
		logger.Log.Warn("Signin failed: invalid password", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User signed in",
		zap.Int64("user_id", user.ID),
		zap.Duration("password_verify_duration", time.Since(verifyStart)),
		zap.Duration("total_duration", time.Since(start)),
	)
	return &models.Auth{User: user, Token: token}, nil
}

// CurrentUser resolves a bearer token into its user. Any token failure,
// expiry included, is ErrInvalidToken.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			logger.Log.Debug("Expired token presented")
		}
		return nil, ErrInvalidToken
	}

	user, err := s.users.Show(ctx, claims.UserID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (models.Token, error) {
	body, err := utils.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token", zap.Int64("user_id", user.ID), zap.Error(err))
		return models.Token{}, err
	}
	return models.Token{Body: body, ExpiresIn: s.jwtExpiration.String()}, nil
}
