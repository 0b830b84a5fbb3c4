package sessions

import (
	"context"
	"errors"
	"time"

	ocpi "chargenet-cloud/internal/ocpi/domain"
)

// TransactionStop is the terminal record of a charge.
type TransactionStop struct {
	Timestamp           time.Time `json:"timestamp"`
	MeterStop           int       `json:"meterStop"`
	TotalConsumptionWh  float64   `json:"totalConsumptionWh"`
	TotalInactivitySecs int       `json:"totalInactivitySecs"`
	TotalDurationSecs   int       `json:"totalDurationSecs"`
	Price               float64   `json:"price"`
	PriceUnit           string    `json:"priceUnit"`
	TagID               string    `json:"tagID"`
}

// OcpiData pairs a transaction with its roaming session and CDR, plus the
// independent reconciliation timestamps.
type OcpiData struct {
	Session          *ocpi.Session `json:"session,omitempty"`
	Cdr              *ocpi.Cdr     `json:"cdr,omitempty"`
	SessionCheckedOn *time.Time    `json:"sessionCheckedOn,omitempty"`
	CdrCheckedOn     *time.Time    `json:"cdrCheckedOn,omitempty"`
}

// Transaction is the authoritative record of one charge.
type Transaction struct {
	ID                        int64
	TenantID                  string
	ChargeBoxID               string
	ConnectorID               int
	TagID                     string
	UserID                    string
	Timestamp                 time.Time
	MeterStart                int
	CurrentTotalConsumptionWh float64
	CurrentInactivitySecs     int
	CurrentInstantWatts       float64
	Price                     float64
	PriceUnit                 string
	Stop                      *TransactionStop
	OcpiData                  *OcpiData
	LastUpdate                time.Time
}

// Validate checks transaction invariants.
func (t Transaction) Validate() error {
	if t.ID == 0 {
		return errors.New("transaction: zero id")
	}
	if t.TenantID == "" {
		return errors.New("transaction: empty tenant id")
	}
	if t.ChargeBoxID == "" {
		return errors.New("transaction: empty station id")
	}
	return nil
}

// IsStopped reports whether the transaction carries a stop record.
func (t Transaction) IsStopped() bool { return t.Stop != nil }

// Session returns the attached roaming session, or nil.
func (t Transaction) Session() *ocpi.Session {
	if t.OcpiData == nil {
		return nil
	}
	return t.OcpiData.Session
}

// Cdr returns the attached roaming CDR, or nil.
func (t Transaction) Cdr() *ocpi.Cdr {
	if t.OcpiData == nil {
		return nil
	}
	return t.OcpiData.Cdr
}

// ErrTransactionNotFound indicates a missing transaction record.
var ErrTransactionNotFound = errors.New("transaction: not found")

// TransactionRepository manages transaction persistence.
type TransactionRepository interface {
	Get(ctx context.Context, tenantID string, id int64) (*Transaction, error)
	ListWithUncheckedSessions(ctx context.Context, tenantID string, limit int) ([]Transaction, error)
	ListWithUncheckedCdrs(ctx context.Context, tenantID string, limit int) ([]Transaction, error)
	ListCompleted(ctx context.Context, tenantID string, from, to time.Time) ([]Transaction, error)
	Save(ctx context.Context, transaction *Transaction) error
}
