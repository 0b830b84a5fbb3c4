package application

import (
	"context"
	"testing"
	"time"

	ocpi "chargenet-cloud/internal/ocpi/domain"
	sessions "chargenet-cloud/internal/sessions/domain"
)

type stubTransactions struct {
	completed []sessions.Transaction
}

func (s stubTransactions) Get(ctx context.Context, tenantID string, id int64) (*sessions.Transaction, error) {
	return nil, sessions.ErrTransactionNotFound
}

func (s stubTransactions) ListWithUncheckedSessions(ctx context.Context, tenantID string, limit int) ([]sessions.Transaction, error) {
	return nil, nil
}

func (s stubTransactions) ListWithUncheckedCdrs(ctx context.Context, tenantID string, limit int) ([]sessions.Transaction, error) {
	return nil, nil
}

func (s stubTransactions) ListCompleted(ctx context.Context, tenantID string, from, to time.Time) ([]sessions.Transaction, error) {
	return s.completed, nil
}

func (s stubTransactions) Save(ctx context.Context, transaction *sessions.Transaction) error {
	return nil
}

func TestCollect_SkipsTransactionsWithoutCdr(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stop := &sessions.TransactionStop{Timestamp: start.Add(time.Hour)}
	service, err := NewCdrExportService(stubTransactions{completed: []sessions.Transaction{
		{ID: 1, TenantID: "tenant-a", ChargeBoxID: "SAP-01", Timestamp: start, Stop: stop,
			OcpiData: &sessions.OcpiData{Cdr: &ocpi.Cdr{ID: "1", TotalEnergy: 9}}},
		{ID: 2, TenantID: "tenant-a", ChargeBoxID: "SAP-01", Timestamp: start, Stop: stop,
			OcpiData: &sessions.OcpiData{Session: &ocpi.Session{ID: "2"}}},
	}})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	export, err := service.Collect(context.Background(), "tenant-a", start.Add(-time.Hour), start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(export.Cdrs) != 1 || export.Cdrs[0].ID != "1" {
		t.Fatalf("unexpected cdrs: %+v", export.Cdrs)
	}
}

func TestCollect_RejectsBadInput(t *testing.T) {
	service, err := NewCdrExportService(stubTransactions{})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	now := time.Now()
	if _, err := service.Collect(context.Background(), "", now.Add(-time.Hour), now); err == nil {
		t.Fatal("expected error for empty tenant")
	}
	if _, err := service.Collect(context.Background(), "tenant-a", now, now); err == nil {
		t.Fatal("expected error for empty window")
	}
}
