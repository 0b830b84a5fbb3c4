package cpo

import (
	"context"
	"fmt"

	ocpi "chargenet-cloud/internal/ocpi/domain"
	"chargenet-cloud/internal/ocpi/mapper"
	sessions "chargenet-cloud/internal/sessions/domain"
)

// sessionLocation builds the wire location for the transaction's station,
// carrying only the Evse the charge runs on.
func (c *Client) sessionLocation(ctx context.Context, transaction *sessions.Transaction) (*ocpi.Location, error) {
	station, err := c.stations.Get(ctx, transaction.TenantID, transaction.ChargeBoxID)
	if err != nil {
		return nil, fmt.Errorf("load station %s: %w", transaction.ChargeBoxID, err)
	}
	site, err := c.sites.Get(ctx, transaction.TenantID, station.SiteID)
	if err != nil {
		return nil, fmt.Errorf("load site %s: %w", station.SiteID, err)
	}
	// The site area is optional for the wire location; tariff resolution
	// degrades along its chain when it is missing.
	area, err := c.siteAreas.Get(ctx, transaction.TenantID, station.SiteAreaID)
	if err != nil {
		area = nil
	}
	location := c.mapper.BuildLocation(site)
	evses := c.mapper.BuildEvses(station, site, area, c.tenant.DefaultTariffID)
	for _, evse := range evses {
		for _, connector := range evse.Connectors {
			if connector.ID == fmt.Sprintf("%d", transaction.ConnectorID) {
				location.Evses = []ocpi.Evse{evse}
				return &location, nil
			}
		}
	}
	return &location, nil
}

// StartSession builds a session from a just-authorized transaction and
// transmits it. On transport failure the session is not considered started
// locally: nothing is persisted.
func (c *Client) StartSession(ctx context.Context, transaction *sessions.Transaction) error {
	location, err := c.sessionLocation(ctx, transaction)
	if err != nil {
		return err
	}
	session, err := mapper.BuildSession(transaction, location, c.currency(), c.clock.Now())
	if err != nil {
		return err
	}
	if _, err := c.transport.Put(ctx, c.sessionsURL(session.ID), session); err != nil {
		return err
	}
	if transaction.OcpiData == nil {
		transaction.OcpiData = &sessions.OcpiData{}
	}
	transaction.OcpiData.Session = session
	if err := c.transactions.Save(ctx, transaction); err != nil {
		return err
	}
	c.logger.Printf("ocpi session started: tenant=%s endpoint=%s session=%s", c.tenant.ID, c.endpoint.ID, session.ID)
	return nil
}

// UpdateSession recomputes the mutable session fields and transmits only
// that subset. Identity and location fields are never resent.
func (c *Client) UpdateSession(ctx context.Context, transaction *sessions.Transaction) error {
	session := transaction.Session()
	if session == nil {
		return ocpi.ErrSessionNotStarted
	}
	consumptions, err := c.consumptions.ListByTransaction(ctx, transaction.TenantID, transaction.ID)
	if err != nil {
		return err
	}
	patch := mapper.BuildSessionPatch(transaction, consumptions, c.currency(), c.clock.Now())
	if _, err := c.transport.Patch(ctx, c.sessionsURL(session.ID), patch); err != nil {
		return err
	}
	session.Kwh = patch.Kwh
	session.TotalCost = patch.TotalCost
	session.Currency = patch.Currency
	session.Status = patch.Status
	session.ChargingPeriods = patch.ChargingPeriods
	session.LastUpdated = patch.LastUpdated
	return c.transactions.Save(ctx, transaction)
}

// StopSession transmits the terminal session state. The transaction must
// already carry a stop record; calling earlier is a caller-contract
// violation and fails hard.
func (c *Client) StopSession(ctx context.Context, transaction *sessions.Transaction) error {
	if !transaction.IsStopped() {
		return ocpi.ErrTransactionNotStopped
	}
	session := transaction.Session()
	if session == nil {
		return ocpi.ErrSessionNotStarted
	}
	consumptions, err := c.consumptions.ListByTransaction(ctx, transaction.TenantID, transaction.ID)
	if err != nil {
		return err
	}
	patch := mapper.BuildSessionPatch(transaction, consumptions, c.currency(), c.clock.Now())
	if _, err := c.transport.Patch(ctx, c.sessionsURL(session.ID), patch); err != nil {
		return err
	}
	stop := transaction.Stop.Timestamp
	session.Kwh = patch.Kwh
	session.TotalCost = patch.TotalCost
	session.Currency = patch.Currency
	session.Status = ocpi.SessionStatusCompleted
	session.ChargingPeriods = patch.ChargingPeriods
	session.EndDatetime = &stop
	session.LastUpdated = patch.LastUpdated
	if err := c.transactions.Save(ctx, transaction); err != nil {
		return err
	}
	c.logger.Printf("ocpi session stopped: tenant=%s endpoint=%s session=%s kwh=%.3f", c.tenant.ID, c.endpoint.ID, session.ID, session.Kwh)
	return nil
}

func (c *Client) currency() string {
	if c.tenant.Currency != "" {
		return c.tenant.Currency
	}
	return "EUR"
}
