// Package repository declares the persistence interfaces the service layer
// programs against. The concrete SQLite implementation lives in
// repository/sqlite; services never import it directly.
package repository

import (
	"context"

	"github.com/mystockfolio/backend/internal/model"
)

type UserRepository interface {
	// Create persists a new user and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict when the email or wallet address is
	// already taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByWalletAddress looks up a user by normalized (lower-case) address.
	GetByWalletAddress(ctx context.Context, address string) (*model.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*model.User, error)
	UpdateNickname(ctx context.Context, id int64, nickname string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *model.Portfolio) error
	// GetByID loads a portfolio together with its assets.
	GetByID(ctx context.Context, id int64) (*model.Portfolio, error)
	// ListByUserWithAssets loads every portfolio the user owns, assets
	// included, in creation order.
	ListByUserWithAssets(ctx context.Context, userID int64) ([]model.Portfolio, error)
	UpdateName(ctx context.Context, id int64, name string) error
	// Delete removes a portfolio; its assets go with it (FK cascade).
	Delete(ctx context.Context, id int64) error
}

type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	GetByID(ctx context.Context, id int64) (*model.Asset, error)
	ListByPortfolio(ctx context.Context, portfolioID int64) ([]model.Asset, error)
	Update(ctx context.Context, asset *model.Asset) error
	Delete(ctx context.Context, id int64) error
}
