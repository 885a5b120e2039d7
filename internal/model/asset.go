package model

// AssetType categorizes a holding for the allocation breakdown.
type AssetType string

const (
	AssetStock      AssetType = "STOCK"
	AssetCoin       AssetType = "COIN"
	AssetStablecoin AssetType = "STABLECOIN"
	AssetDefi       AssetType = "DEFI"
	AssetNFT        AssetType = "NFT"
	AssetOther      AssetType = "OTHER"
)

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetStock, AssetCoin, AssetStablecoin, AssetDefi, AssetNFT, AssetOther:
		return true
	}
	return false
}

// Asset is a single holding inside a portfolio.
//
// Quantity and AvgBuyPrice must both be > 0 — the service layer rejects
// anything else before it reaches the database.
// AvgBuyPrice is the cost basis per unit; quantity × avgBuyPrice is the
// original investment, quantity × current price is the market value.
type Asset struct {
	ID          int64     `json:"assetId"     db:"id"`
	PortfolioID int64     `json:"portfolioId" db:"portfolio_id"`
	AssetType   AssetType `json:"assetType"   db:"asset_type"`
	Ticker      string    `json:"ticker"      db:"ticker"`
	Name        string    `json:"name"        db:"name"`
	Quantity    float64   `json:"quantity"    db:"quantity"`
	AvgBuyPrice float64   `json:"avgBuyPrice" db:"avg_buy_price"`
}
