package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/school-core/internal"
)

// ErrUserNotFound is returned by repositories for unknown or deleted users.
var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID int64) (*User, error)
}

type TokenGenerator interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	IdentityForToken(ctx context.Context, accessToken string) (internal.Identity, error)
	CurrentUser(ctx context.Context, actor internal.Identity) (*User, error)
}

type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	accessTTLSecs  int64
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen *JWTTokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		accessTTLSecs:  int64(tokenGen.AccessTokenTTL.Seconds()),
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return AuthTokens{}, internal.NewInternalError("failed to load user", err)
		}
		s.logger.Info("login failed", "email", email, "reason", "unknown_email")
		return AuthTokens{}, internal.NewAuthFailedError("Invalid email or password").WithCause(ErrInvalidCredentials)
	}

	if err := VerifyPassword(user.PasswordHash, dto.Password); err != nil {
		s.logger.Info("login failed", "email", email, "user_id", user.ID, "reason", "bad_password")
		return AuthTokens{}, internal.NewAuthFailedError("Invalid email or password").WithCause(ErrInvalidCredentials)
	}

	if !user.IsActive {
		s.logger.Info("login failed", "email", email, "user_id", user.ID, "reason", "inactive")
		return AuthTokens{}, internal.NewAuthFailedError("User account is inactive").WithCause(ErrUserInactive)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return tokens, nil
}

func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, tokenError(err)
	}

	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issue(user)
}

// IdentityForToken validates an access token and reloads the user, so a
// deactivated account is refused even while its token is unexpired.
func (s *Service) IdentityForToken(ctx context.Context, accessToken string) (internal.Identity, error) {
	if accessToken == "" {
		return internal.Identity{}, internal.NewAuthFailedError("Authentication required")
	}

	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return internal.Identity{}, tokenError(err)
	}

	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return internal.Identity{}, err
	}
	return user.Identity(), nil
}

func (s *Service) CurrentUser(ctx context.Context, actor internal.Identity) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, internal.NewNotFoundError("user", actor.UserID)
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return user, nil
}

func (s *Service) activeUser(ctx context.Context, claims *Claims) (*User, error) {
	userID, err := claims.UserIDInt()
	if err != nil {
		return nil, internal.NewAuthFailedError("Invalid token").WithCause(ErrInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, internal.NewAuthFailedError("Invalid token").WithCause(err)
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !user.IsActive {
		return nil, internal.NewAuthFailedError("User account is inactive").WithCause(ErrUserInactive)
	}
	return user, nil
}

func (s *Service) issue(user *User) (AuthTokens, error) {
	id := strconv.FormatInt(user.ID, 10)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(id, user.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(id, user.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTLSecs,
	}, nil
}

func tokenError(err error) *internal.AppError {
	if errors.Is(err, ErrTokenExpired) {
		return internal.NewAuthFailedError("Token has expired").WithCause(err)
	}
	return internal.NewAuthFailedError("Invalid token").WithCause(err)
}
