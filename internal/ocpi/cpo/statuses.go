package cpo

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
)

// evseStatusPatch is the body of a single-EVSE status patch.
type evseStatusPatch struct {
	Status      ocpi.EvseStatus `json:"status"`
	LastUpdated time.Time       `json:"last_updated"`
}

// SendEVSEStatuses pushes EVSE statuses for the tenant's public, locally
// issued stations. With processAllEVSEs it scans everything; otherwise it
// sends the delta set: stations that failed last run plus stations with a
// status notification since, de-duplicated. The endpoint's last-run
// timestamp and failure set are written once, at batch completion, which is
// what makes delta mode eventually consistent.
func (c *Client) SendEVSEStatuses(ctx context.Context, processAllEVSEs bool) (*Result, error) {
	result := &Result{}
	startedAt := c.clock.Now()

	if processAllEVSEs || c.endpoint.LastPatchJobOn.IsZero() {
		if err := c.sendAllStatuses(ctx, result); err != nil {
			return nil, err
		}
	} else {
		stationIDs, err := c.deltaStationIDs(ctx)
		if err != nil {
			return nil, err
		}
		c.sendStatusesFor(ctx, stationIDs, result)
	}

	c.endpoint.LastPatchJobOn = startedAt
	c.endpoint.LastPatchJobResult = result.JobResult()
	if err := c.endpoints.Save(ctx, c.endpoint); err != nil {
		return nil, fmt.Errorf("persist endpoint job state: %w", err)
	}
	c.logger.Printf("ocpi evse statuses sent: tenant=%s endpoint=%s all=%t success=%d failure=%d",
		c.tenant.ID, c.endpoint.ID, processAllEVSEs, result.Success(), result.Failure())
	return result, nil
}

// deltaStationIDs merges last run's failed stations with stations that
// reported a status notification since, without duplicates.
func (c *Client) deltaStationIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	if c.endpoint.LastPatchJobResult != nil {
		for _, id := range c.endpoint.LastPatchJobResult.ObjectIDsInFailure {
			seen[id] = true
		}
	}
	notified, err := c.stations.ListWithStatusNotificationSince(ctx, c.tenant.ID, c.endpoint.LastPatchJobOn)
	if err != nil {
		return nil, fmt.Errorf("list notified stations: %w", err)
	}
	for _, id := range notified {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// sendAllStatuses walks every public site, paginating stations per location.
func (c *Client) sendAllStatuses(ctx context.Context, result *Result) error {
	sites, err := c.sites.ListPublic(ctx, c.tenant.ID)
	if err != nil {
		return fmt.Errorf("list public sites: %w", err)
	}
	for i := range sites {
		site := sites[i]
		var locationFailed atomic.Bool
		for offset := 0; ; offset += c.pageSize {
			page, err := c.stations.ListBySite(ctx, c.tenant.ID, site.ID, offset, c.pageSize)
			if err != nil {
				result.RecordFailure(site.ID, err)
				locationFailed.Store(true)
				break
			}
			c.patchStationStatuses(ctx, page.Stations, &site, result, &locationFailed)
			if offset+c.pageSize >= page.Total {
				break
			}
		}
		if locationFailed.Load() {
			c.notifyPatchFailure(site.ID)
		}
	}
	return nil
}

// sendStatusesFor patches the given station ids, resolving each station's
// site on the way.
func (c *Client) sendStatusesFor(ctx context.Context, stationIDs []string, result *Result) {
	forEachBounded(ctx, stationIDs, c.concurrency, func(ctx context.Context, stationID string) {
		station, err := c.stations.Get(ctx, c.tenant.ID, stationID)
		if err != nil {
			result.RecordFailure(stationID, err)
			return
		}
		site, err := c.sites.Get(ctx, c.tenant.ID, station.SiteID)
		if err != nil {
			result.RecordFailure(stationID, err)
			return
		}
		if failed := c.patchOneStation(ctx, station, site, result); failed {
			c.notifyPatchFailure(site.ID)
		}
	})
}

func (c *Client) patchStationStatuses(ctx context.Context, stations []masterdata.ChargingStation, site *masterdata.Site, result *Result, locationFailed *atomic.Bool) {
	forEachBounded(ctx, stations, c.concurrency, func(ctx context.Context, station masterdata.ChargingStation) {
		if c.patchOneStation(ctx, &station, site, result) {
			locationFailed.Store(true)
		}
	})
}

// patchOneStation maps a station to its Evse fan-out and patches each Evse's
// status. It reports whether any patch failed.
func (c *Client) patchOneStation(ctx context.Context, station *masterdata.ChargingStation, site *masterdata.Site, result *Result) bool {
	if !station.Public || !station.Issuer {
		return false
	}
	var area *masterdata.SiteArea
	if station.SiteAreaID != "" {
		if loaded, err := c.siteAreas.Get(ctx, c.tenant.ID, station.SiteAreaID); err == nil {
			area = loaded
		}
	}
	failed := false
	evses := c.mapper.BuildEvses(station, site, area, c.tenant.DefaultTariffID)
	for _, evse := range evses {
		patch := evseStatusPatch{Status: evse.Status, LastUpdated: c.clock.Now()}
		if _, err := c.transport.Patch(ctx, c.evseURL(site.ID, evse.UID), patch); err != nil {
			result.RecordFailure(station.ID, err)
			failed = true
			continue
		}
		result.RecordSuccess()
	}
	return failed
}

// notifyPatchFailure is fire-and-forget toward the admin channel; it never
// blocks or fails the batch.
func (c *Client) notifyPatchFailure(locationID string) {
	if c.notifier == nil {
		return
	}
	c.notifier.NotifyPatchFailure(c.tenant.ID, locationID, fmt.Errorf("status patch failed for location %s", locationID))
}
