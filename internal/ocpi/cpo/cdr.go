package cpo

import (
	"context"

	ocpi "chargenet-cloud/internal/ocpi/domain"
	"chargenet-cloud/internal/ocpi/mapper"
	sessions "chargenet-cloud/internal/sessions/domain"
)

// PostCdr builds and transmits the final billing record for a stopped
// transaction. Preconditions, checked in order, each with a distinct error:
// the transaction is stopped, a session exists, and no CDR was posted yet.
// A CDR with no charging periods or zero total energy is persisted and
// logged but never transmitted.
func (c *Client) PostCdr(ctx context.Context, transaction *sessions.Transaction) error {
	if !transaction.IsStopped() {
		return ocpi.ErrTransactionNotStopped
	}
	if transaction.Session() == nil {
		return ocpi.ErrSessionNotStarted
	}
	if transaction.Cdr() != nil {
		return ocpi.ErrCdrAlreadyPosted
	}

	location, err := c.sessionLocation(ctx, transaction)
	if err != nil {
		return err
	}
	consumptions, err := c.consumptions.ListByTransaction(ctx, transaction.TenantID, transaction.ID)
	if err != nil {
		return err
	}
	cdr, err := mapper.BuildCdr(transaction, location, consumptions, c.currency(), c.clock.Now())
	if err != nil {
		return err
	}

	if len(cdr.ChargingPeriods) == 0 || cdr.TotalEnergy <= 0 {
		c.logger.Printf("ocpi cdr not transmitted: tenant=%s endpoint=%s cdr=%s periods=%d energy=%.3f",
			c.tenant.ID, c.endpoint.ID, cdr.ID, len(cdr.ChargingPeriods), cdr.TotalEnergy)
		transaction.OcpiData.Cdr = cdr
		return c.transactions.Save(ctx, transaction)
	}

	if _, err := c.transport.Post(ctx, c.cdrsURL(), cdr); err != nil {
		return err
	}
	transaction.OcpiData.Cdr = cdr
	if err := c.transactions.Save(ctx, transaction); err != nil {
		return err
	}
	c.logger.Printf("ocpi cdr posted: tenant=%s endpoint=%s cdr=%s energy=%.3f cost=%.2f",
		c.tenant.ID, c.endpoint.ID, cdr.ID, cdr.TotalEnergy, cdr.TotalCost)
	return nil
}
