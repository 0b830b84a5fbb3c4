package mapper

import (
	"testing"
	"time"

	ocpi "chargenet-cloud/internal/ocpi/domain"
	sessions "chargenet-cloud/internal/sessions/domain"
)

func testTransaction() *sessions.Transaction {
	return &sessions.Transaction{
		ID:          42,
		TenantID:    "tenant-a",
		ChargeBoxID: "SAP-01",
		ConnectorID: 1,
		TagID:       "TAG-1",
		Timestamp:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSessionStatusFor(t *testing.T) {
	tx := testTransaction()
	if got := SessionStatusFor(tx); got != ocpi.SessionStatusPending {
		t.Fatalf("expected PENDING before energy, got %s", got)
	}
	tx.CurrentTotalConsumptionWh = 1500
	if got := SessionStatusFor(tx); got != ocpi.SessionStatusActive {
		t.Fatalf("expected ACTIVE with energy, got %s", got)
	}
	tx.Stop = &sessions.TransactionStop{Timestamp: tx.Timestamp.Add(time.Hour)}
	if got := SessionStatusFor(tx); got != ocpi.SessionStatusCompleted {
		t.Fatalf("expected COMPLETED after stop, got %s", got)
	}
}

func TestBuildSession_RequiresTag(t *testing.T) {
	tx := testTransaction()
	tx.TagID = ""
	if _, err := BuildSession(tx, nil, "EUR", time.Now()); err == nil {
		t.Fatal("expected validation error for missing tag")
	}
}

func TestBuildSessionPatch_TruncatesKwh(t *testing.T) {
	tx := testTransaction()
	tx.CurrentTotalConsumptionWh = 12345.9 // 12.3459 kWh
	now := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)

	patch := BuildSessionPatch(tx, nil, "EUR", now)
	if patch.Kwh != 12.345 {
		t.Fatalf("expected truncation to 12.345, got %v", patch.Kwh)
	}
	if patch.EndDatetime != nil {
		t.Fatal("expected no end datetime on running session")
	}
	if patch.Status != ocpi.SessionStatusActive {
		t.Fatalf("unexpected status: %s", patch.Status)
	}
}

func TestBuildChargingPeriods_SynthesizedWithParking(t *testing.T) {
	tx := testTransaction()
	tx.CurrentTotalConsumptionWh = 8000
	tx.CurrentInactivitySecs = 600
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	periods := BuildChargingPeriods(tx, nil, now)
	if len(periods) != 2 {
		t.Fatalf("expected energy + parking periods, got %d", len(periods))
	}
	if periods[0].Dimensions[0].Type != ocpi.DimensionEnergy || periods[0].Dimensions[0].Volume != 8 {
		t.Fatalf("unexpected energy period: %+v", periods[0])
	}
	if periods[1].Dimensions[0].Type != ocpi.DimensionParkingTime || periods[1].Dimensions[0].Volume != 600 {
		t.Fatalf("unexpected parking period: %+v", periods[1])
	}
	wantStart := now.Add(-10 * time.Minute)
	if !periods[1].StartDateTime.Equal(wantStart) {
		t.Fatalf("expected parking start %s, got %s", wantStart, periods[1].StartDateTime)
	}
}

func TestBuildChargingPeriods_PerSample(t *testing.T) {
	tx := testTransaction()
	samples := []sessions.Consumption{
		{StartedAt: tx.Timestamp, ConsumptionWh: 1000},
		{StartedAt: tx.Timestamp.Add(15 * time.Minute), ConsumptionWh: 2500},
	}
	periods := BuildChargingPeriods(tx, samples, time.Now())
	if len(periods) != 2 {
		t.Fatalf("expected one period per sample, got %d", len(periods))
	}
	if periods[1].Dimensions[0].Volume != 2.5 {
		t.Fatalf("expected 2.5 kWh, got %v", periods[1].Dimensions[0].Volume)
	}
}

func TestBuildCdr_RequiresStop(t *testing.T) {
	tx := testTransaction()
	if _, err := BuildCdr(tx, nil, nil, "EUR", time.Now()); err != ocpi.ErrTransactionNotStopped {
		t.Fatalf("expected ErrTransactionNotStopped, got %v", err)
	}
}

func TestBuildCdr_Totals(t *testing.T) {
	tx := testTransaction()
	tx.Stop = &sessions.TransactionStop{
		Timestamp:           tx.Timestamp.Add(2 * time.Hour),
		TotalConsumptionWh:  21500,
		TotalDurationSecs:   7200,
		TotalInactivitySecs: 1800,
		Price:               9.5,
	}
	cdr, err := BuildCdr(tx, nil, nil, "EUR", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cdr.TotalEnergy != 21.5 {
		t.Fatalf("expected 21.5 kWh, got %v", cdr.TotalEnergy)
	}
	if cdr.TotalTime != 2 {
		t.Fatalf("expected 2h, got %v", cdr.TotalTime)
	}
	if cdr.TotalParkingTime != 0.5 {
		t.Fatalf("expected 0.5h parking, got %v", cdr.TotalParkingTime)
	}
	if cdr.ID != "42" || cdr.AuthID != "TAG-1" {
		t.Fatalf("unexpected identity: id=%s auth=%s", cdr.ID, cdr.AuthID)
	}
}

func TestApplySessionUpdate_StaleIgnored(t *testing.T) {
	tx := testTransaction()
	now := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	tx.OcpiData = &sessions.OcpiData{Session: &ocpi.Session{ID: "42", LastUpdated: now}}

	stale := &ocpi.Session{ID: "42", Kwh: 5, LastUpdated: now.Add(-time.Minute)}
	consumption, err := ApplySessionUpdate(tx, stale, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumption != nil {
		t.Fatal("expected stale update to be ignored")
	}
	if tx.CurrentTotalConsumptionWh != 0 {
		t.Fatalf("expected totals unchanged, got %v", tx.CurrentTotalConsumptionWh)
	}
}

func TestApplySessionUpdate_PositiveDelta(t *testing.T) {
	tx := testTransaction()
	tx.CurrentTotalConsumptionWh = 2000
	update := &ocpi.Session{
		ID:          "42",
		Kwh:         5,
		TotalCost:   3.2,
		Currency:    "EUR",
		Status:      ocpi.SessionStatusActive,
		LastUpdated: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
	}

	consumption, err := ApplySessionUpdate(tx, update, update.LastUpdated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumption == nil {
		t.Fatal("expected a consumption record for the delta")
	}
	if consumption.ConsumptionWh != 3000 {
		t.Fatalf("expected 3000 Wh delta, got %v", consumption.ConsumptionWh)
	}
	if tx.CurrentTotalConsumptionWh != 5000 {
		t.Fatalf("expected total 5000 Wh, got %v", tx.CurrentTotalConsumptionWh)
	}
	if consumption.CumulatedConsumptionWh != 5000 {
		t.Fatalf("expected cumulated 5000 Wh, got %v", consumption.CumulatedConsumptionWh)
	}
	if tx.Price != 3.2 || tx.PriceUnit != "EUR" {
		t.Fatalf("expected price carry-over, got %v %s", tx.Price, tx.PriceUnit)
	}
}

func TestApplySessionUpdate_NegativeDeltaNeverShrinks(t *testing.T) {
	tx := testTransaction()
	tx.CurrentTotalConsumptionWh = 5000
	update := &ocpi.Session{ID: "42", Kwh: 3, LastUpdated: time.Now()}

	consumption, err := ApplySessionUpdate(tx, update, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumption != nil {
		t.Fatal("expected no consumption for a shrinking total")
	}
	if tx.CurrentTotalConsumptionWh != 5000 {
		t.Fatalf("expected totals to only grow, got %v", tx.CurrentTotalConsumptionWh)
	}
}

func TestApplySessionUpdate_CompletedSetsStop(t *testing.T) {
	tx := testTransaction()
	end := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	update := &ocpi.Session{
		ID:          "42",
		Kwh:         7,
		Status:      ocpi.SessionStatusCompleted,
		EndDatetime: &end,
		LastUpdated: end,
	}

	if _, err := ApplySessionUpdate(tx, update, end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Stop == nil {
		t.Fatal("expected stop record")
	}
	if !tx.Stop.Timestamp.Equal(end) {
		t.Fatalf("expected stop at %s, got %s", end, tx.Stop.Timestamp)
	}
	if tx.Stop.TotalConsumptionWh != 7000 {
		t.Fatalf("expected 7000 Wh at stop, got %v", tx.Stop.TotalConsumptionWh)
	}
	if tx.Stop.TotalDurationSecs != 7200 {
		t.Fatalf("expected 7200s duration, got %d", tx.Stop.TotalDurationSecs)
	}
}

func TestApplySessionUpdate_IDMismatch(t *testing.T) {
	tx := testTransaction()
	if _, err := ApplySessionUpdate(tx, &ocpi.Session{ID: "99", LastUpdated: time.Now()}, time.Now()); err == nil {
		t.Fatal("expected id mismatch error")
	}
}
