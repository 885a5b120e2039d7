// Package service holds the application's business logic. Services sit
// between the HTTP handlers and the repositories: handlers decode requests
// and encode responses, services decide what is allowed and what happens,
// repositories persist. Nothing here imports net/http.
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/auth"
	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
	"github.com/mystockfolio/backend/internal/wallet"
)

// walletEmailDomain synthesizes an email for wallet-only accounts, since the
// users table keys uniqueness on email.
const walletEmailDomain = "@metamask.wallet"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NonceChallenge is what the client receives when it asks to log in with a
// wallet: the nonce for bookkeeping and the exact message to sign.
type NonceChallenge struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// AuthResult is the outcome of any successful login: the session token plus
// enough profile data for the client to render the header.
type AuthResult struct {
	UserID        int64   `json:"userId"`
	Email         string  `json:"email"`
	Nickname      string  `json:"nickname"`
	WalletAddress *string `json:"walletAddress,omitempty"`
	AccessToken   string  `json:"accessToken"`
	IsNewUser     bool    `json:"isNewUser"`
}

// WalletService implements signature-based wallet login.
//
// The flow has two halves: IssueNonce hands the client a fresh challenge,
// Authenticate checks the signed challenge and turns it into a session.
// Between the two the nonce lives in the Registry; after Authenticate it is
// gone no matter what — a failed signature burns the nonce too, which is
// what makes replaying a captured signature useless.
type WalletService struct {
	nonces   *wallet.Registry
	verifier *wallet.Verifier
	users    repository.UserRepository
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewWalletService(
	nonces *wallet.Registry,
	verifier *wallet.Verifier,
	users repository.UserRepository,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{
		nonces:   nonces,
		verifier: verifier,
		users:    users,
		tokens:   tokens,
		logger:   logger,
	}
}

// IssueNonce creates a single-use challenge for the address. Re-issuing for
// the same address replaces any previous unconsumed challenge.
func (s *WalletService) IssueNonce(address string) (*NonceChallenge, error) {
	addr := wallet.NormalizeAddress(address)
	if !addressPattern.MatchString(addr) {
		return nil, apperror.ValidationFailed("address", "address must be a 0x-prefixed 40-hex-digit wallet address")
	}

	nonce, message := s.nonces.Issue(addr)
	return &NonceChallenge{Nonce: nonce, Message: message}, nil
}

// Authenticate verifies a signed challenge and logs the wallet in, creating
// an account on first login.
//
// Every failure surfaces as apperror.ErrInvalidCredentials — the client
// can't distinguish a missing nonce from a bad signature, and doesn't need
// to: the remedy is always "request a new nonce and sign again".
func (s *WalletService) Authenticate(ctx context.Context, address, signatureHex, nickname string) (*AuthResult, error) {
	addr := wallet.NormalizeAddress(address)

	// Consume first. Even if everything after this fails, the challenge is
	// spent.
	nonce, err := s.nonces.Consume(addr)
	if err != nil {
		s.logger.Info("wallet login rejected", "address", addr, "reason", err)
		return nil, apperror.InvalidCredentials("nonce not found or expired, request a new one")
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return nil, apperror.InvalidCredentials("signature is not valid hex")
	}

	message := s.nonces.SignedMessage(nonce)
	if !s.verifier.Verify(message, sig, addr) {
		s.logger.Info("wallet signature verification failed", "address", addr)
		return nil, apperror.InvalidCredentials("signature verification failed")
	}

	user, isNew, err := s.loadOrCreateUser(ctx, addr, nickname)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: issuing wallet session token: %w", err)
	}

	s.logger.Info("wallet login", "userId", user.ID, "address", addr, "newUser", isNew)
	return &AuthResult{
		UserID:        user.ID,
		Email:         user.Email,
		Nickname:      user.Nickname,
		WalletAddress: user.WalletAddress,
		AccessToken:   token,
		IsNewUser:     isNew,
	}, nil
}

// loadOrCreateUser resolves the verified address to an account. First login
// requires a nickname; later logins ignore whatever nickname was sent.
func (s *WalletService) loadOrCreateUser(ctx context.Context, addr, nickname string) (*model.User, bool, error) {
	user, err := s.users.GetByWalletAddress(ctx, addr)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, fmt.Errorf("service: looking up wallet user: %w", err)
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, false, apperror.InvalidCredentials("nickname is required for first wallet login")
	}

	user = &model.User{
		Email:         addr + walletEmailDomain,
		Nickname:      nickname,
		WalletAddress: &addr,
		Provider:      model.ProviderMetaMask,
		ProviderID:    addr,
	}
	err = s.users.Create(ctx, user)
	if err == nil {
		return user, true, nil
	}

	// Two first-logins raced; the unique index on wallet_address made the
	// other one win. Fall back to a lookup of the row it created.
	if errors.Is(err, apperror.ErrConflict) {
		existing, lookupErr := s.users.GetByWalletAddress(ctx, addr)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("service: re-fetching wallet user after conflict: %w", lookupErr)
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("service: creating wallet user: %w", err)
}
