package masterdata

import (
	"context"
	"errors"
	"time"
)

// ConnectorStatus is the internal (charge-point facing) connector status.
type ConnectorStatus string

const (
	ConnectorStatusAvailable     ConnectorStatus = "Available"
	ConnectorStatusPreparing     ConnectorStatus = "Preparing"
	ConnectorStatusCharging      ConnectorStatus = "Charging"
	ConnectorStatusOccupied      ConnectorStatus = "Occupied"
	ConnectorStatusSuspendedEVSE ConnectorStatus = "SuspendedEVSE"
	ConnectorStatusSuspendedEV   ConnectorStatus = "SuspendedEV"
	ConnectorStatusFinishing     ConnectorStatus = "Finishing"
	ConnectorStatusReserved      ConnectorStatus = "Reserved"
	ConnectorStatusUnavailable   ConnectorStatus = "Unavailable"
	ConnectorStatusFaulted       ConnectorStatus = "Faulted"
)

// CurrentType is the electrical current kind of a connector.
type CurrentType string

const (
	CurrentTypeAC CurrentType = "AC"
	CurrentTypeDC CurrentType = "DC"
)

// Connector is one physical outlet of a charging station.
type Connector struct {
	ConnectorID            int
	ChargePointID          int
	Status                 ConnectorStatus
	Type                   string
	CurrentType            CurrentType
	Power                  int
	Voltage                int
	Amperage               int
	NumberOfConnectedPhase int
	TariffID               string
}

// ChargePoint is a physical controller grouping connectors. When its
// connectors cannot charge in parallel the whole group is exposed to roaming
// partners as a single chargeable unit.
type ChargePoint struct {
	ChargePointID          int
	CannotChargeInParallel bool
	ConnectorIDs           []int
	Power                  int
	Voltage                int
	Amperage               int
	NumberOfConnectedPhase int
}

// ChargingStation is the authoritative station aggregate.
type ChargingStation struct {
	ID           string
	TenantID     string
	SiteID       string
	SiteAreaID   string
	Issuer       bool
	Public       bool
	TariffID     string
	Latitude     float64
	Longitude    float64
	MaximumPower int
	ChargePoints []ChargePoint
	Connectors   []Connector
	LastChanged  time.Time
}

// Validate checks station invariants.
func (s ChargingStation) Validate() error {
	if s.ID == "" {
		return errors.New("charging station: empty id")
	}
	if s.TenantID == "" {
		return errors.New("charging station: empty tenant id")
	}
	if len(s.Connectors) == 0 {
		return errors.New("charging station: no connectors")
	}
	return nil
}

// ChargePointForConnector returns the charge point owning the connector id,
// or nil when the station has no charge point topology.
func (s ChargingStation) ChargePointForConnector(connectorID int) *ChargePoint {
	for i := range s.ChargePoints {
		for _, id := range s.ChargePoints[i].ConnectorIDs {
			if id == connectorID {
				return &s.ChargePoints[i]
			}
		}
	}
	return nil
}

// ConnectorByID returns the connector with the given id, or nil.
func (s ChargingStation) ConnectorByID(connectorID int) *Connector {
	for i := range s.Connectors {
		if s.Connectors[i].ConnectorID == connectorID {
			return &s.Connectors[i]
		}
	}
	return nil
}

// StationPage is one page of stations for a site.
type StationPage struct {
	Stations []ChargingStation
	Total    int
}

// StationRepository manages charging station persistence.
type StationRepository interface {
	Get(ctx context.Context, tenantID, id string) (*ChargingStation, error)
	ListBySite(ctx context.Context, tenantID, siteID string, offset, limit int) (*StationPage, error)
	ListWithStatusNotificationSince(ctx context.Context, tenantID string, since time.Time) ([]string, error)
	Save(ctx context.Context, station *ChargingStation) error
}
