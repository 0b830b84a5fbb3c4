package cpo

import (
	"context"
	"errors"
	"fmt"
	"math"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
	sessions "chargenet-cloud/internal/sessions/domain"
)

// checkBatchLimit bounds how many unchecked transactions one run visits.
const checkBatchLimit = 500

// CheckSessions reconciles unchecked local sessions against the remote
// state. The checked timestamp is set regardless of the comparison outcome;
// a detected mismatch is audited, not retried.
func (c *Client) CheckSessions(ctx context.Context) (*Result, error) {
	result := &Result{}
	transactions, err := c.transactions.ListWithUncheckedSessions(ctx, c.tenant.ID, checkBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("list unchecked sessions: %w", err)
	}

	forEachBounded(ctx, transactions, c.concurrency, func(ctx context.Context, transaction sessions.Transaction) {
		if err := c.checkSession(ctx, &transaction); err != nil {
			result.RecordFailure(fmt.Sprintf("%d", transaction.ID), err)
			return
		}
		result.RecordSuccess()
	})
	return result, nil
}

func (c *Client) checkSession(ctx context.Context, transaction *sessions.Transaction) error {
	session := transaction.Session()
	if session == nil {
		return ocpi.ErrSessionNotStarted
	}

	checkErr := c.compareRemoteSession(ctx, transaction, session)

	// At-least-once audit: mark checked no matter how the comparison went.
	now := c.clock.Now()
	transaction.OcpiData.SessionCheckedOn = &now
	if err := c.transactions.Save(ctx, transaction); err != nil {
		return err
	}
	return checkErr
}

func (c *Client) compareRemoteSession(ctx context.Context, transaction *sessions.Transaction, session *ocpi.Session) error {
	resp, err := c.transport.Get(ctx, c.sessionsURL(session.ID))
	if err != nil {
		return err
	}
	var remote ocpi.Session
	if err := resp.Decode(&remote); err != nil {
		return err
	}
	if remote.ID != session.ID {
		return fmt.Errorf("remote session id mismatch: got %s want %s", remote.ID, session.ID)
	}
	if math.Abs(remote.Kwh-session.Kwh) > 0.001 {
		return fmt.Errorf("remote session kwh mismatch: got %.3f want %.3f", remote.Kwh, session.Kwh)
	}
	return nil
}

// CheckCdrs reconciles posted CDRs against the remote platform. When the
// remote answers that it does not know the CDR, the CDR is transmitted
// again; every visited transaction is marked checked either way.
func (c *Client) CheckCdrs(ctx context.Context) (*Result, error) {
	result := &Result{}
	transactions, err := c.transactions.ListWithUncheckedCdrs(ctx, c.tenant.ID, checkBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("list unchecked cdrs: %w", err)
	}

	forEachBounded(ctx, transactions, c.concurrency, func(ctx context.Context, transaction sessions.Transaction) {
		if err := c.checkCdr(ctx, &transaction); err != nil {
			result.RecordFailure(fmt.Sprintf("%d", transaction.ID), err)
			return
		}
		result.RecordSuccess()
	})
	return result, nil
}

func (c *Client) checkCdr(ctx context.Context, transaction *sessions.Transaction) error {
	cdr := transaction.Cdr()
	if cdr == nil {
		return errors.New("cpo: no cdr attached to transaction")
	}

	checkErr := c.compareRemoteCdr(ctx, cdr)

	now := c.clock.Now()
	transaction.OcpiData.CdrCheckedOn = &now
	if err := c.transactions.Save(ctx, transaction); err != nil {
		return err
	}
	return checkErr
}

func (c *Client) compareRemoteCdr(ctx context.Context, cdr *ocpi.Cdr) error {
	_, err := c.transport.Get(ctx, c.cdrURL(cdr.ID))
	if err == nil {
		return nil
	}
	var statusErr *ocpi.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == ocpi.StatusCodeUnableToUseAPI {
		// The remote lost the CDR; transmit it again.
		if _, postErr := c.transport.Post(ctx, c.cdrsURL(), cdr); postErr != nil {
			return fmt.Errorf("repost cdr %s: %w", cdr.ID, postErr)
		}
		return nil
	}
	return err
}

// CheckLocations verifies that every public site is known to the remote
// platform.
func (c *Client) CheckLocations(ctx context.Context) (*Result, error) {
	result := &Result{}
	sites, err := c.sites.ListPublic(ctx, c.tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list public sites: %w", err)
	}

	forEachBounded(ctx, sites, c.concurrency, func(ctx context.Context, site masterdata.Site) {
		resp, err := c.transport.Get(ctx, c.locationURL(site.ID))
		if err != nil {
			result.RecordFailure(site.ID, err)
			return
		}
		var remote ocpi.Location
		if err := resp.Decode(&remote); err != nil {
			result.RecordFailure(site.ID, err)
			return
		}
		if remote.ID != site.ID {
			result.RecordFailure(site.ID, fmt.Errorf("remote location id mismatch: got %s want %s", remote.ID, site.ID))
			return
		}
		result.RecordSuccess()
	})
	return result, nil
}
