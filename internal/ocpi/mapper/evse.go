package mapper

import (
	"fmt"
	"math"
	"strconv"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
)

// dcNominalVoltage is assumed for DC outlets whose profile only carries power.
const dcNominalVoltage = 400

// Mapper converts internal entities to their OCPI projections for one
// roaming relation. Conversion is pure; the mapper only carries the party
// identity and the tariff rule table.
type Mapper struct {
	countryCode string
	partyID     string
	tariffs     *TariffResolver
}

// New constructs a mapper for one country code and party id.
func New(countryCode, partyID string, tariffs *TariffResolver) *Mapper {
	if tariffs == nil {
		tariffs = NewTariffResolver(nil)
	}
	return &Mapper{countryCode: countryCode, partyID: partyID, tariffs: tariffs}
}

// BuildEvseUID derives the wire identity of the chargeable unit a connector
// belongs to. Connectors grouped under a charge point that cannot charge in
// parallel share the charge point's uid and therefore collapse into one Evse.
func BuildEvseUID(station *masterdata.ChargingStation, connector *masterdata.Connector) string {
	if chargePoint := station.ChargePointForConnector(connector.ConnectorID); chargePoint != nil && chargePoint.CannotChargeInParallel {
		return fmt.Sprintf("%s*%d", station.ID, chargePoint.ChargePointID)
	}
	return fmt.Sprintf("%s*%d", station.ID, connector.ConnectorID)
}

// buildEvseID renders the public eMI3-style id for an Evse uid.
func buildEvseID(countryCode, partyID, uid string) string {
	return fmt.Sprintf("%s*%s*E%s", countryCode, partyID, uid)
}

// BuildEvses maps one charging station to its Evse fan-out. A charge point
// flagged cannot-charge-in-parallel yields exactly one Evse carrying all of
// its connectors and the aggregated status; every other connector yields its
// own Evse.
func (m *Mapper) BuildEvses(station *masterdata.ChargingStation, site *masterdata.Site, siteArea *masterdata.SiteArea, tenantDefaultTariffID string) []ocpi.Evse {
	evses := make([]ocpi.Evse, 0, len(station.Connectors))
	seenChargePoints := make(map[int]bool)

	for i := range station.Connectors {
		connector := &station.Connectors[i]
		chargePoint := station.ChargePointForConnector(connector.ConnectorID)
		if chargePoint != nil && chargePoint.CannotChargeInParallel {
			if seenChargePoints[chargePoint.ChargePointID] {
				continue
			}
			seenChargePoints[chargePoint.ChargePointID] = true
			evses = append(evses, m.buildGroupedEvse(station, chargePoint, site, siteArea, tenantDefaultTariffID))
			continue
		}
		evses = append(evses, m.buildConnectorEvse(station, connector, site, siteArea, tenantDefaultTariffID))
	}
	return evses
}

func (m *Mapper) buildConnectorEvse(station *masterdata.ChargingStation, connector *masterdata.Connector, site *masterdata.Site, siteArea *masterdata.SiteArea, tenantDefaultTariffID string) ocpi.Evse {
	uid := BuildEvseUID(station, connector)
	return ocpi.Evse{
		UID:         uid,
		EvseID:      buildEvseID(m.countryCode, m.partyID, uid),
		Status:      EvseStatusFor(connector.Status),
		Connectors:  []ocpi.Connector{m.buildConnector(station, connector, site, siteArea, tenantDefaultTariffID)},
		Coordinates: stationCoordinates(station),
		LastUpdated: station.LastChanged,
	}
}

func (m *Mapper) buildGroupedEvse(station *masterdata.ChargingStation, chargePoint *masterdata.ChargePoint, site *masterdata.Site, siteArea *masterdata.SiteArea, tenantDefaultTariffID string) ocpi.Evse {
	grouped := make([]masterdata.Connector, 0, len(chargePoint.ConnectorIDs))
	wireConnectors := make([]ocpi.Connector, 0, len(chargePoint.ConnectorIDs))
	var uid string
	for _, connectorID := range chargePoint.ConnectorIDs {
		connector := station.ConnectorByID(connectorID)
		if connector == nil {
			continue
		}
		grouped = append(grouped, *connector)
		wireConnectors = append(wireConnectors, m.buildConnector(station, connector, site, siteArea, tenantDefaultTariffID))
		uid = BuildEvseUID(station, connector)
	}
	return ocpi.Evse{
		UID:         uid,
		EvseID:      buildEvseID(m.countryCode, m.partyID, uid),
		Status:      EvseStatusFor(AggregateStatus(grouped)),
		Connectors:  wireConnectors,
		Coordinates: stationCoordinates(station),
		LastUpdated: station.LastChanged,
	}
}

func (m *Mapper) buildConnector(station *masterdata.ChargingStation, connector *masterdata.Connector, site *masterdata.Site, siteArea *masterdata.SiteArea, tenantDefaultTariffID string) ocpi.Connector {
	voltage, amperage, powerType := deriveElectrical(station, connector)
	return ocpi.Connector{
		ID:        strconv.Itoa(connector.ConnectorID),
		Standard:  ConnectorStandard(connector.Type),
		Format:    "SOCKET",
		PowerType: powerType,
		Voltage:   voltage,
		Amperage:  amperage,
		TariffID: m.tariffs.Resolve(TariffInput{
			TenantID:        station.TenantID,
			Connector:       connector,
			Station:         station,
			SiteArea:        siteArea,
			Site:            site,
			TenantDefaultID: tenantDefaultTariffID,
		}),
		LastUpdated: station.LastChanged,
	}
}

// deriveElectrical resolves voltage, amperage and power type. AC outlets read
// the values from the connector or, when absent, the owning charge point
// profile. DC outlets synthesize a nominal voltage and derive amperage from
// the rated power.
func deriveElectrical(station *masterdata.ChargingStation, connector *masterdata.Connector) (int, int, ocpi.PowerType) {
	if connector.CurrentType == masterdata.CurrentTypeDC {
		voltage := dcNominalVoltage
		power := connector.Power
		if power == 0 {
			if chargePoint := station.ChargePointForConnector(connector.ConnectorID); chargePoint != nil {
				power = chargePoint.Power
			}
		}
		amperage := int(math.Round(float64(power) / float64(voltage)))
		return voltage, amperage, ocpi.PowerTypeDC
	}

	voltage := connector.Voltage
	amperage := connector.Amperage
	phases := connector.NumberOfConnectedPhase
	if chargePoint := station.ChargePointForConnector(connector.ConnectorID); chargePoint != nil {
		if voltage == 0 {
			voltage = chargePoint.Voltage
		}
		if amperage == 0 {
			amperage = chargePoint.Amperage
		}
		if phases == 0 {
			phases = chargePoint.NumberOfConnectedPhase
		}
	}
	powerType := ocpi.PowerTypeAC1Phase
	if phases == 3 {
		powerType = ocpi.PowerTypeAC3Phase
	}
	return voltage, amperage, powerType
}

func stationCoordinates(station *masterdata.ChargingStation) *ocpi.GeoLocation {
	if station.Latitude == 0 && station.Longitude == 0 {
		return nil
	}
	return &ocpi.GeoLocation{
		Latitude:  strconv.FormatFloat(station.Latitude, 'f', 6, 64),
		Longitude: strconv.FormatFloat(station.Longitude, 'f', 6, 64),
	}
}

// BuildLocation maps a site to its OCPI location, without the Evse fan-out.
// Callers append evses per station page while following pagination.
func (m *Mapper) BuildLocation(site *masterdata.Site) ocpi.Location {
	return ocpi.Location{
		ID:         site.ID,
		Type:       "UNKNOWN",
		Name:       site.Name,
		Address:    site.Address.Street,
		City:       site.Address.City,
		PostalCode: site.Address.PostalCode,
		Country:    site.Address.Country,
		Coordinates: ocpi.GeoLocation{
			Latitude:  strconv.FormatFloat(site.Address.Latitude, 'f', 6, 64),
			Longitude: strconv.FormatFloat(site.Address.Longitude, 'f', 6, 64),
		},
		LastUpdated: site.LastChanged,
	}
}
