package model

// Portfolio is a named collection of assets owned by exactly one user.
//
// OWNERSHIP:
// A portfolio exclusively owns its assets — deleting the portfolio deletes
// them (the assets table declares ON DELETE CASCADE on portfolio_id).
// Users own portfolios but deleting a user is not part of any flow here.
type Portfolio struct {
	ID     int64   `json:"portfolioId" db:"id"`
	UserID int64   `json:"userId"      db:"user_id"`
	Name   string  `json:"name"        db:"name"`
	Assets []Asset `json:"assets"`
}
