package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/auth"
	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
)

// AuthService implements email/password accounts and the tail end of the
// OAuth2 flow (the provider handshake itself lives in internal/auth; this
// service only decides what to do with the resulting profile).
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// SignUp registers a local (email + password) account.
func (s *AuthService) SignUp(ctx context.Context, email, nickname, password, passwordConfirm string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	nickname = strings.TrimSpace(nickname)

	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	case nickname == "":
		return nil, apperror.ValidationFailed("nickname", "nickname is required")
	case len(password) < 8:
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	case password != passwordConfirm:
		return nil, apperror.ValidationFailed("passwordConfirm", "passwords do not match")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service: checking email availability: %w", err)
	}
	if exists {
		return nil, apperror.Conflict("user", email)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: &hash,
		Provider:     model.ProviderLocal,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The ExistsByEmail check above isn't atomic with the insert; the
		// unique index is. Report the race the same way as the check.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("user", email)
		}
		return nil, fmt.Errorf("service: creating user: %w", err)
	}

	s.logger.Info("user registered", "userId", user.ID, "email", email)
	return user, nil
}

// SignIn authenticates a local account and returns a session.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("service: looking up user: %w", err)
	}

	// OAuth and wallet accounts have no password hash; they can't sign in
	// this way.
	if user.PasswordHash == nil || s.passwords.Verify(*user.PasswordHash, password) != nil {
		return nil, apperror.InvalidCredentials("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: issuing session token: %w", err)
	}

	return &AuthResult{
		UserID:      user.ID,
		Email:       user.Email,
		Nickname:    user.Nickname,
		AccessToken: token,
	}, nil
}

// LoginOrRegisterOAuth upserts an account for a verified OAuth2 profile and
// returns a session. A brand-new account is flagged IsNewUser so the client
// can route the user to the nickname-completion step.
func (s *AuthService) LoginOrRegisterOAuth(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	user, err := s.users.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	isNew := false

	switch {
	case err == nil:
		// existing account, fall through to the token

	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Email:    profile.Email,
			Nickname: profile.Nickname,
			Provider: profile.Provider,
			// ProviderID is the provider's stable identifier; email can
			// change (or be withheld), this can't.
			ProviderID: profile.ProviderID,
		}
		if user.Email == "" {
			// Kakao lets users withhold their email. Synthesize one so the
			// unique index holds.
			user.Email = fmt.Sprintf("%s@%s.oauth", profile.ProviderID, profile.Provider)
		}
		if user.Nickname == "" {
			user.Nickname = profile.Provider + "-user"
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service: creating OAuth user: %w", err)
		}
		isNew = true
		s.logger.Info("oauth user registered", "userId", user.ID, "provider", profile.Provider)

	default:
		return nil, fmt.Errorf("service: looking up OAuth user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: issuing session token: %w", err)
	}

	return &AuthResult{
		UserID:      user.ID,
		Email:       user.Email,
		Nickname:    user.Nickname,
		AccessToken: token,
		IsNewUser:   isNew,
	}, nil
}

// CompleteOAuth2 finishes first-time OAuth onboarding: the user picks their
// nickname and gets a fresh token.
func (s *AuthService) CompleteOAuth2(ctx context.Context, userID int64, nickname string) (*AuthResult, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, apperror.ValidationFailed("nickname", "nickname is required")
	}

	if err := s.users.UpdateNickname(ctx, userID, nickname); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: updating nickname: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: reloading user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: issuing session token: %w", err)
	}

	return &AuthResult{
		UserID:        user.ID,
		Email:         user.Email,
		Nickname:      user.Nickname,
		WalletAddress: user.WalletAddress,
		AccessToken:   token,
	}, nil
}

// CurrentUser loads the profile behind a session token's user ID.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
