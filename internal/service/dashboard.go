package service

import (
	"context"
	"fmt"

	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
)

// PriceOracle supplies the current unit price for a holding. The market
// sidecar client implements it; tests plug in a fixed-price fake. An oracle
// never fails — implementations fall back to avgBuyPrice when they can't
// get a live quote, which values the holding at cost (zero gain/loss).
type PriceOracle interface {
	CurrentPrice(ctx context.Context, ticker, assetType string, avgBuyPrice float64) float64
}

// AssetAllocation is one slice of the dashboard's allocation breakdown.
type AssetAllocation struct {
	AssetType  model.AssetType `json:"assetType"`
	Value      float64         `json:"value"`
	Percentage float64         `json:"percentage"`
}

// PortfolioStats is the aggregate the dashboard renders.
type PortfolioStats struct {
	TotalInvestment float64           `json:"totalInvestment"`
	TotalValue      float64           `json:"totalValue"`
	TotalGainLoss   float64           `json:"totalGainLoss"`
	ReturnRate      float64           `json:"returnRate"`
	Allocations     []AssetAllocation `json:"allocations"`
}

// DashboardService computes portfolio statistics across all of a user's
// holdings.
type DashboardService struct {
	portfolios repository.PortfolioRepository
	prices     PriceOracle
}

func NewDashboardService(portfolios repository.PortfolioRepository, prices PriceOracle) *DashboardService {
	return &DashboardService{portfolios: portfolios, prices: prices}
}

// Stats walks every asset the user holds and aggregates:
//
//	investment  = Σ quantity × avgBuyPrice   (cost basis)
//	value       = Σ quantity × current price (market value)
//	gain/loss   = value − investment
//	return rate = gain/loss ÷ investment × 100  (0 with no investment)
//
// plus a per-asset-type allocation with each type's share of the total
// market value. Allocation entries appear in the order a type is first
// encountered, so the chart's slice order is stable between refreshes.
// A user with no holdings gets an all-zero response with an empty (not
// nil) allocation list.
func (s *DashboardService) Stats(ctx context.Context, userID int64) (*PortfolioStats, error) {
	portfolios, err := s.portfolios.ListByUserWithAssets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: loading portfolios for stats: %w", err)
	}

	stats := &PortfolioStats{Allocations: []AssetAllocation{}}
	valueByType := make(map[model.AssetType]float64)
	typeOrder := []model.AssetType{}

	for _, p := range portfolios {
		for _, a := range p.Assets {
			costBasis := a.Quantity * a.AvgBuyPrice
			unit := s.prices.CurrentPrice(ctx, a.Ticker, string(a.AssetType), a.AvgBuyPrice)
			marketValue := a.Quantity * unit

			stats.TotalInvestment += costBasis
			stats.TotalValue += marketValue

			if _, seen := valueByType[a.AssetType]; !seen {
				typeOrder = append(typeOrder, a.AssetType)
			}
			valueByType[a.AssetType] += marketValue
		}
	}

	stats.TotalGainLoss = stats.TotalValue - stats.TotalInvestment
	if stats.TotalInvestment > 0 {
		stats.ReturnRate = stats.TotalGainLoss / stats.TotalInvestment * 100
	}

	for _, t := range typeOrder {
		alloc := AssetAllocation{AssetType: t, Value: valueByType[t]}
		if stats.TotalValue > 0 {
			alloc.Percentage = valueByType[t] / stats.TotalValue * 100
		}
		stats.Allocations = append(stats.Allocations, alloc)
	}
	return stats, nil
}
