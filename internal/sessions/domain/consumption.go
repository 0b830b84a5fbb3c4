package sessions

import (
	"context"
	"time"
)

// Consumption is one metered sample attached to a transaction.
type Consumption struct {
	TransactionID          int64
	TenantID               string
	StartedAt              time.Time
	EndedAt                time.Time
	ConsumptionWh          float64
	CumulatedConsumptionWh float64
	InstantWatts           float64
}

// ConsumptionRepository manages consumption persistence.
type ConsumptionRepository interface {
	ListByTransaction(ctx context.Context, tenantID string, transactionID int64) ([]Consumption, error)
	Save(ctx context.Context, consumption *Consumption) error
}
