package pipeline

import (
	"context"

	"github.com/kilianp07/flexbid/core/model"
)

// Repository supplies the historical tables of one weekday. Implementations
// must be safe for concurrent use.
type Repository interface {
	Consumption(ctx context.Context, wd model.Weekday) ([]model.ConsumptionProfile, error)
	Prices(ctx context.Context, wd model.Weekday) ([]model.PriceProfile, error)
}

// ResultStore persists completed runs.
type ResultStore interface {
	Save(ctx context.Context, res model.WeekResult) error
}
