package mapper

import (
	"math"
	"strconv"
	"time"

	ocpi "chargenet-cloud/internal/ocpi/domain"
	sessions "chargenet-cloud/internal/sessions/domain"
)

// truncate3 cuts a kWh value to three decimals without rounding up, matching
// what is transmitted on the wire.
func truncate3(value float64) float64 {
	return math.Trunc(value*1000) / 1000
}

// SessionID returns the wire session id for a transaction. The mapping is
// 1:1, the session id is the stringified transaction id.
func SessionID(transaction *sessions.Transaction) string {
	return strconv.FormatInt(transaction.ID, 10)
}

// SessionStatusFor derives the wire status from the transaction state.
func SessionStatusFor(transaction *sessions.Transaction) ocpi.SessionStatus {
	switch {
	case transaction.IsStopped():
		return ocpi.SessionStatusCompleted
	case transaction.CurrentTotalConsumptionWh > 0:
		return ocpi.SessionStatusActive
	default:
		return ocpi.SessionStatusPending
	}
}

// BuildSession maps a just-authorized transaction to a full OCPI session,
// identity and location fields included. Only StartSession transmits this
// shape; updates send the mutable subset from BuildSessionPatch.
func BuildSession(transaction *sessions.Transaction, location *ocpi.Location, currency string, now time.Time) (*ocpi.Session, error) {
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if transaction.TagID == "" {
		return nil, ocpi.NewValidationError("session", "auth_id")
	}
	return &ocpi.Session{
		ID:              SessionID(transaction),
		StartDatetime:   transaction.Timestamp,
		Kwh:             truncate3(transaction.CurrentTotalConsumptionWh / 1000),
		AuthID:          transaction.TagID,
		AuthorizationID: SessionID(transaction),
		AuthMethod:      "AUTH_REQUEST",
		Location:        location,
		Currency:        currency,
		TotalCost:       transaction.Price,
		Status:          SessionStatusFor(transaction),
		LastUpdated:     now,
	}, nil
}

// SessionPatch is the mutable subset resent on every session update.
// Identity and location fields are never resent.
type SessionPatch struct {
	Kwh             float64               `json:"kwh"`
	LastUpdated     time.Time             `json:"last_updated"`
	Currency        string                `json:"currency"`
	TotalCost       float64               `json:"total_cost"`
	Status          ocpi.SessionStatus    `json:"status"`
	ChargingPeriods []ocpi.ChargingPeriod `json:"charging_periods,omitempty"`
	EndDatetime     *time.Time            `json:"end_datetime,omitempty"`
}

// BuildSessionPatch recomputes the mutable session fields from the current
// transaction state.
func BuildSessionPatch(transaction *sessions.Transaction, consumptions []sessions.Consumption, currency string, now time.Time) SessionPatch {
	patch := SessionPatch{
		Kwh:             truncate3(currentKwh(transaction)),
		LastUpdated:     now,
		Currency:        currency,
		TotalCost:       currentPrice(transaction),
		Status:          SessionStatusFor(transaction),
		ChargingPeriods: BuildChargingPeriods(transaction, consumptions, now),
	}
	if transaction.Stop != nil {
		stop := transaction.Stop.Timestamp
		patch.EndDatetime = &stop
	}
	return patch
}

func currentKwh(transaction *sessions.Transaction) float64 {
	if transaction.Stop != nil {
		return transaction.Stop.TotalConsumptionWh / 1000
	}
	return transaction.CurrentTotalConsumptionWh / 1000
}

func currentPrice(transaction *sessions.Transaction) float64 {
	if transaction.Stop != nil {
		return transaction.Stop.Price
	}
	return transaction.Price
}

func currentInactivitySecs(transaction *sessions.Transaction) int {
	if transaction.Stop != nil {
		return transaction.Stop.TotalInactivitySecs
	}
	return transaction.CurrentInactivitySecs
}

// BuildChargingPeriods emits one ENERGY period per consumption sample. When
// no samples exist it synthesizes at most two periods from the aggregate: an
// ENERGY period at session start and, if any inactivity was recorded, a
// PARKING_TIME period covering the trailing idle window.
func BuildChargingPeriods(transaction *sessions.Transaction, consumptions []sessions.Consumption, now time.Time) []ocpi.ChargingPeriod {
	if len(consumptions) > 0 {
		periods := make([]ocpi.ChargingPeriod, 0, len(consumptions))
		for _, sample := range consumptions {
			periods = append(periods, ocpi.ChargingPeriod{
				StartDateTime: sample.StartedAt,
				Dimensions: []ocpi.CdrDimension{{
					Type:   ocpi.DimensionEnergy,
					Volume: truncate3(sample.ConsumptionWh / 1000),
				}},
			})
		}
		return periods
	}

	kwh := currentKwh(transaction)
	if kwh <= 0 {
		return nil
	}
	periods := []ocpi.ChargingPeriod{{
		StartDateTime: transaction.Timestamp,
		Dimensions:    []ocpi.CdrDimension{{Type: ocpi.DimensionEnergy, Volume: truncate3(kwh)}},
	}}
	if inactivity := currentInactivitySecs(transaction); inactivity > 0 {
		end := now
		if transaction.Stop != nil {
			end = transaction.Stop.Timestamp
		}
		periods = append(periods, ocpi.ChargingPeriod{
			StartDateTime: end.Add(-time.Duration(inactivity) * time.Second),
			Dimensions:    []ocpi.CdrDimension{{Type: ocpi.DimensionParkingTime, Volume: float64(inactivity)}},
		})
	}
	return periods
}

// BuildCdr maps a stopped transaction to its final billing record.
func BuildCdr(transaction *sessions.Transaction, location *ocpi.Location, consumptions []sessions.Consumption, currency string, now time.Time) (*ocpi.Cdr, error) {
	if transaction.Stop == nil {
		return nil, ocpi.ErrTransactionNotStopped
	}
	stop := transaction.Stop
	return &ocpi.Cdr{
		ID:               SessionID(transaction),
		StartDateTime:    transaction.Timestamp,
		StopDateTime:     stop.Timestamp,
		AuthID:           transaction.TagID,
		AuthMethod:       "AUTH_REQUEST",
		Location:         location,
		Currency:         currency,
		ChargingPeriods:  BuildChargingPeriods(transaction, consumptions, now),
		TotalCost:        stop.Price,
		TotalEnergy:      truncate3(stop.TotalConsumptionWh / 1000),
		TotalTime:        float64(stop.TotalDurationSecs) / 3600,
		TotalParkingTime: float64(stop.TotalInactivitySecs) / 3600,
		LastUpdated:      now,
	}, nil
}

// ApplySessionUpdate folds a remote session state into the transaction. An
// update whose last_updated is not newer than the stored one is ignored. A
// positive kWh delta yields one consumption record; totals only ever grow.
// The returned consumption is nil when the update changed nothing.
func ApplySessionUpdate(transaction *sessions.Transaction, session *ocpi.Session, now time.Time) (*sessions.Consumption, error) {
	if session == nil {
		return nil, ocpi.NewValidationError("session", "session")
	}
	if session.ID != SessionID(transaction) {
		return nil, ocpi.NewValidationError("session", "id")
	}
	stored := transaction.Session()
	if stored != nil && !session.LastUpdated.After(stored.LastUpdated) {
		return nil, nil
	}

	previousKwh := transaction.CurrentTotalConsumptionWh / 1000
	deltaKwh := session.Kwh - previousKwh

	var consumption *sessions.Consumption
	if deltaKwh > 0 {
		startedAt := transaction.Timestamp
		if stored != nil {
			startedAt = stored.LastUpdated
		}
		transaction.CurrentTotalConsumptionWh += deltaKwh * 1000
		consumption = &sessions.Consumption{
			TransactionID:          transaction.ID,
			TenantID:               transaction.TenantID,
			StartedAt:              startedAt,
			EndedAt:                session.LastUpdated,
			ConsumptionWh:          deltaKwh * 1000,
			CumulatedConsumptionWh: transaction.CurrentTotalConsumptionWh,
		}
	}

	if session.TotalCost > 0 {
		transaction.Price = session.TotalCost
		transaction.PriceUnit = session.Currency
	}
	if session.EndDatetime != nil || session.Status == ocpi.SessionStatusCompleted {
		stopAt := now
		if session.EndDatetime != nil {
			stopAt = *session.EndDatetime
		}
		if transaction.Stop == nil {
			transaction.Stop = &sessions.TransactionStop{
				Timestamp:          stopAt,
				TotalConsumptionWh: transaction.CurrentTotalConsumptionWh,
				Price:              transaction.Price,
				PriceUnit:          transaction.PriceUnit,
				TagID:              transaction.TagID,
				TotalDurationSecs:  int(stopAt.Sub(transaction.Timestamp) / time.Second),
			}
		}
	}

	if transaction.OcpiData == nil {
		transaction.OcpiData = &sessions.OcpiData{}
	}
	transaction.OcpiData.Session = session
	transaction.LastUpdate = session.LastUpdated
	return consumption, nil
}
