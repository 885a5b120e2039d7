package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
)

// compile-time check that *AssetRepo implements repository.AssetRepository
var _ repository.AssetRepository = (*AssetRepo)(nil)

const assetColumns = `id, portfolio_id, asset_type, ticker, name, quantity, avg_buy_price`

// Create inserts a new asset and fills in its ID.
func (r *AssetRepo) Create(ctx context.Context, asset *model.Asset) error {
	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO assets (portfolio_id, asset_type, ticker, name, quantity, avg_buy_price)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		asset.PortfolioID,
		asset.AssetType,
		asset.Ticker,
		asset.Name,
		asset.Quantity,
		asset.AvgBuyPrice,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting asset %s: %w", asset.Ticker, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted asset id: %w", err)
	}
	asset.ID = id
	return nil
}

// GetByID retrieves an asset.
// Returns apperror.ErrNotFound if the asset doesn't exist.
func (r *AssetRepo) GetByID(ctx context.Context, id int64) (*model.Asset, error) {
	var a model.Asset

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id,
	).Scan(&a.ID, &a.PortfolioID, &a.AssetType, &a.Ticker, &a.Name, &a.Quantity, &a.AvgBuyPrice)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("asset", id)
		}
		return nil, fmt.Errorf("sqlite: getting asset %d: %w", id, err)
	}
	return &a, nil
}

// ListByPortfolio returns a portfolio's assets in insertion order.
func (r *AssetRepo) ListByPortfolio(ctx context.Context, portfolioID int64) ([]model.Asset, error) {
	return listAssetsByPortfolio(ctx, r.db.conn, portfolioID)
}

// listAssetsByPortfolio is shared with PortfolioRepo, which loads assets
// alongside their portfolios.
func listAssetsByPortfolio(ctx context.Context, conn *sql.DB, portfolioID int64) ([]model.Asset, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE portfolio_id = ? ORDER BY id`, portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing assets for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.PortfolioID, &a.AssetType, &a.Ticker, &a.Name, &a.Quantity, &a.AvgBuyPrice); err != nil {
			return nil, fmt.Errorf("sqlite: scanning asset row: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating asset rows: %w", err)
	}
	return assets, nil
}

// Update saves an asset's mutable fields.
func (r *AssetRepo) Update(ctx context.Context, asset *model.Asset) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE assets SET asset_type = ?, ticker = ?, name = ?, quantity = ?, avg_buy_price = ?
		 WHERE id = ?`,
		asset.AssetType,
		asset.Ticker,
		asset.Name,
		asset.Quantity,
		asset.AvgBuyPrice,
		asset.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating asset %d: %w", asset.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("asset", asset.ID)
	}
	return nil
}

// Delete removes a single asset.
func (r *AssetRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM assets WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting asset %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("asset", id)
	}
	return nil
}
