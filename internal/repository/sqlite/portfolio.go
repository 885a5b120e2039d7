package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
)

// compile-time check that *PortfolioRepo implements repository.PortfolioRepository
var _ repository.PortfolioRepository = (*PortfolioRepo)(nil)

// Create inserts a new portfolio and fills in its ID.
func (r *PortfolioRepo) Create(ctx context.Context, portfolio *model.Portfolio) error {
	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO portfolios (user_id, name) VALUES (?, ?)`,
		portfolio.UserID, portfolio.Name,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting portfolio %q: %w", portfolio.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted portfolio id: %w", err)
	}
	portfolio.ID = id
	if portfolio.Assets == nil {
		portfolio.Assets = []model.Asset{}
	}
	return nil
}

// GetByID loads a portfolio with its assets.
// Returns apperror.ErrNotFound if the portfolio doesn't exist.
func (r *PortfolioRepo) GetByID(ctx context.Context, id int64) (*model.Portfolio, error) {
	var p model.Portfolio

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM portfolios WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &p.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("portfolio", id)
		}
		return nil, fmt.Errorf("sqlite: getting portfolio %d: %w", id, err)
	}

	assets, err := listAssetsByPortfolio(ctx, r.db.conn, p.ID)
	if err != nil {
		return nil, err
	}
	p.Assets = assets
	return &p, nil
}

// ListByUserWithAssets loads every portfolio the user owns, assets included.
//
// Two queries instead of one JOIN: a LEFT JOIN would repeat portfolio
// columns per asset row and need row-grouping on scan. With SQLite in-process
// the second round trip is effectively free, and the code stays readable.
// Results come back in insertion (id) order, which keeps the dashboard's
// allocation ordering deterministic.
func (r *PortfolioRepo) ListByUserWithAssets(ctx context.Context, userID int64) ([]model.Portfolio, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, user_id, name FROM portfolios WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing portfolios for user %d: %w", userID, err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning portfolio row: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating portfolio rows: %w", err)
	}

	for i := range portfolios {
		assets, err := listAssetsByPortfolio(ctx, r.db.conn, portfolios[i].ID)
		if err != nil {
			return nil, err
		}
		portfolios[i].Assets = assets
	}
	return portfolios, nil
}

// UpdateName renames a portfolio.
func (r *PortfolioRepo) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE portfolios SET name = ? WHERE id = ?`, name, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: renaming portfolio %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("portfolio", id)
	}
	return nil
}

// Delete removes a portfolio. Its assets are removed by the FK cascade.
func (r *PortfolioRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM portfolios WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting portfolio %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("portfolio", id)
	}
	return nil
}
