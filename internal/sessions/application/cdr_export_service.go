package application

import (
	"context"
	"errors"
	"time"

	ocpi "chargenet-cloud/internal/ocpi/domain"
	sessions "chargenet-cloud/internal/sessions/domain"
	"chargenet-cloud/internal/sessions/interfaces"
)

// CdrExportService collects the posted CDRs of a tenant for reporting.
type CdrExportService struct {
	transactions sessions.TransactionRepository
}

// NewCdrExportService constructs a service.
func NewCdrExportService(transactions sessions.TransactionRepository) (*CdrExportService, error) {
	if transactions == nil {
		return nil, errors.New("cdr export: nil transaction repository")
	}
	return &CdrExportService{transactions: transactions}, nil
}

// Collect gathers the CDRs of completed transactions in the stop-time
// window. Transactions without a posted CDR are skipped.
func (s *CdrExportService) Collect(ctx context.Context, tenantID string, from, to time.Time) (interfaces.CdrExport, error) {
	export := interfaces.CdrExport{TenantID: tenantID, From: from, To: to}
	if tenantID == "" {
		return export, errors.New("cdr export: empty tenant id")
	}
	if !to.After(from) {
		return export, errors.New("cdr export: empty window")
	}

	transactions, err := s.transactions.ListCompleted(ctx, tenantID, from, to)
	if err != nil {
		return export, err
	}
	export.Cdrs = make([]ocpi.Cdr, 0, len(transactions))
	for _, tx := range transactions {
		if cdr := tx.Cdr(); cdr != nil {
			export.Cdrs = append(export.Cdrs, *cdr)
		}
	}
	return export, nil
}
