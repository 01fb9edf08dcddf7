package player

import (
	"context"

	"github.com/shopspring/decimal"
)

// Filter narrows catalog listings. Zero values mean "no constraint".
type Filter struct {
	Position Position
	TeamID   string
	MaxPrice *decimal.Decimal
	Search   string
}

// Repository describes the read-only player catalog.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Player, error)
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
}
