package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/market"
	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
)

// AssetInput carries the client-supplied fields for creating or updating a
// holding. Name is optional — when empty it's resolved from the ticker.
type AssetInput struct {
	AssetType   model.AssetType `json:"assetType"`
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Quantity    float64         `json:"quantity"`
	AvgBuyPrice float64         `json:"avgBuyPrice"`
}

// PortfolioService implements portfolio and asset CRUD. Every operation
// takes the calling user's ID and enforces ownership: touching someone
// else's portfolio is apperror.ErrForbidden, not ErrNotFound, so a user
// probing IDs learns the resource exists but not whose it is — matching
// how the HTTP layer reports it.
type PortfolioService struct {
	portfolios repository.PortfolioRepository
	assets     repository.AssetRepository
	logger     *slog.Logger
}

func NewPortfolioService(
	portfolios repository.PortfolioRepository,
	assets repository.AssetRepository,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		portfolios: portfolios,
		assets:     assets,
		logger:     logger,
	}
}

// List returns the user's portfolios with their assets, in creation order.
func (s *PortfolioService) List(ctx context.Context, userID int64) ([]model.Portfolio, error) {
	return s.portfolios.ListByUserWithAssets(ctx, userID)
}

// Get loads one portfolio (with assets), checking ownership.
func (s *PortfolioService) Get(ctx context.Context, userID, portfolioID int64) (*model.Portfolio, error) {
	return s.ownedPortfolio(ctx, userID, portfolioID)
}

// Create adds an empty portfolio.
func (s *PortfolioService) Create(ctx context.Context, userID int64, name string) (*model.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "portfolio name is required")
	}

	p := &model.Portfolio{UserID: userID, Name: name}
	if err := s.portfolios.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("service: creating portfolio: %w", err)
	}
	s.logger.Info("portfolio created", "userId", userID, "portfolioId", p.ID)
	return p, nil
}

// Rename changes a portfolio's name.
func (s *PortfolioService) Rename(ctx context.Context, userID, portfolioID int64, name string) (*model.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "portfolio name is required")
	}

	p, err := s.ownedPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	if err := s.portfolios.UpdateName(ctx, portfolioID, name); err != nil {
		return nil, fmt.Errorf("service: renaming portfolio: %w", err)
	}
	p.Name = name
	return p, nil
}

// Delete removes a portfolio and, via the FK cascade, all of its assets.
func (s *PortfolioService) Delete(ctx context.Context, userID, portfolioID int64) error {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return err
	}
	if err := s.portfolios.Delete(ctx, portfolioID); err != nil {
		return fmt.Errorf("service: deleting portfolio: %w", err)
	}
	s.logger.Info("portfolio deleted", "userId", userID, "portfolioId", portfolioID)
	return nil
}

// ListAssets returns a portfolio's holdings, checking ownership.
func (s *PortfolioService) ListAssets(ctx context.Context, userID, portfolioID int64) ([]model.Asset, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return s.assets.ListByPortfolio(ctx, portfolioID)
}

// AddAsset adds a holding to one of the user's portfolios.
func (s *PortfolioService) AddAsset(ctx context.Context, userID, portfolioID int64, in AssetInput) (*model.Asset, error) {
	if _, err := s.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	if err := validateAssetInput(&in); err != nil {
		return nil, err
	}

	a := &model.Asset{
		PortfolioID: portfolioID,
		AssetType:   in.AssetType,
		Ticker:      in.Ticker,
		Name:        in.Name,
		Quantity:    in.Quantity,
		AvgBuyPrice: in.AvgBuyPrice,
	}
	if err := s.assets.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("service: creating asset: %w", err)
	}
	return a, nil
}

// UpdateAsset modifies a holding. The asset's owner is found through its
// portfolio.
func (s *PortfolioService) UpdateAsset(ctx context.Context, userID, assetID int64, in AssetInput) (*model.Asset, error) {
	a, err := s.ownedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	if err := validateAssetInput(&in); err != nil {
		return nil, err
	}

	a.AssetType = in.AssetType
	a.Ticker = in.Ticker
	a.Name = in.Name
	a.Quantity = in.Quantity
	a.AvgBuyPrice = in.AvgBuyPrice
	if err := s.assets.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("service: updating asset: %w", err)
	}
	return a, nil
}

// DeleteAsset removes a single holding.
func (s *PortfolioService) DeleteAsset(ctx context.Context, userID, assetID int64) error {
	if _, err := s.ownedAsset(ctx, userID, assetID); err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("service: deleting asset: %w", err)
	}
	return nil
}

// validateAssetInput normalizes and checks client-supplied asset fields in
// place.
func validateAssetInput(in *AssetInput) error {
	in.Ticker = strings.ToUpper(strings.TrimSpace(in.Ticker))
	in.Name = strings.TrimSpace(in.Name)

	switch {
	case !in.AssetType.Valid():
		return apperror.ValidationFailed("assetType", "assetType must be one of STOCK, COIN, STABLECOIN, DEFI, NFT, OTHER")
	case in.Ticker == "":
		return apperror.ValidationFailed("ticker", "ticker is required")
	case in.Quantity <= 0:
		return apperror.ValidationFailed("quantity", "quantity must be greater than zero")
	case in.AvgBuyPrice <= 0:
		return apperror.ValidationFailed("avgBuyPrice", "avgBuyPrice must be greater than zero")
	}

	if in.Name == "" {
		in.Name = market.AssetName(in.Ticker)
	}
	return nil
}

func (s *PortfolioService) ownedPortfolio(ctx context.Context, userID, portfolioID int64) (*model.Portfolio, error) {
	p, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperror.Forbidden("portfolio belongs to another user")
	}
	return p, nil
}

func (s *PortfolioService) ownedAsset(ctx context.Context, userID, assetID int64) (*model.Asset, error) {
	a, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedPortfolio(ctx, userID, a.PortfolioID); err != nil {
		return nil, err
	}
	return a, nil
}
