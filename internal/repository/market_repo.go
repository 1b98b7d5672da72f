package repository

import (
	"context"
	"fmt"

	"go-market-auth/internal/database"
	"go-market-auth/internal/model"
)

// MarketRepository only seeds reference rows; the catalog owns market data.
type MarketRepository struct {
	db database.PgxIface
}

func NewMarketRepository(db database.PgxIface) *MarketRepository {
	return &MarketRepository{db: db}
}

// AddMarket inserts market unless its code already exists.
func (r *MarketRepository) AddMarket(ctx context.Context, market model.Market) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO markets (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
		market.Code, market.Name)
	if err != nil {
		return fmt.Errorf("add market %s: %w", market.Code, err)
	}
	return nil
}
