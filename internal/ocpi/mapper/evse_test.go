package mapper

import (
	"testing"
	"time"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
)

func testStation() *masterdata.ChargingStation {
	return &masterdata.ChargingStation{
		ID:       "SAP-01",
		TenantID: "tenant-a",
		SiteID:   "site-1",
		Issuer:   true,
		Public:   true,
		Connectors: []masterdata.Connector{
			{ConnectorID: 1, Status: masterdata.ConnectorStatusAvailable, Type: "T2", CurrentType: masterdata.CurrentTypeAC, Voltage: 230, Amperage: 32, NumberOfConnectedPhase: 3},
			{ConnectorID: 2, Status: masterdata.ConnectorStatusCharging, Type: "CCS", CurrentType: masterdata.CurrentTypeDC, Power: 50000},
		},
		LastChanged: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildEvses_OnePerConnector(t *testing.T) {
	m := New("DE", "CNC", nil)
	station := testStation()

	evses := m.BuildEvses(station, &masterdata.Site{ID: "site-1"}, nil, "")
	if len(evses) != 2 {
		t.Fatalf("expected 2 evses, got %d", len(evses))
	}
	if evses[0].UID != "SAP-01*1" {
		t.Fatalf("unexpected uid: %s", evses[0].UID)
	}
	if evses[0].EvseID != "DE*CNC*ESAP-01*1" {
		t.Fatalf("unexpected evse id: %s", evses[0].EvseID)
	}
	if evses[0].Status != ocpi.EvseStatusAvailable {
		t.Fatalf("unexpected status: %s", evses[0].Status)
	}
	if evses[1].Status != ocpi.EvseStatusCharging {
		t.Fatalf("unexpected status: %s", evses[1].Status)
	}
}

func TestBuildEvses_GroupedChargePoint(t *testing.T) {
	m := New("DE", "CNC", nil)
	station := testStation()
	station.ChargePoints = []masterdata.ChargePoint{
		{ChargePointID: 7, CannotChargeInParallel: true, ConnectorIDs: []int{1, 2}},
	}

	evses := m.BuildEvses(station, &masterdata.Site{ID: "site-1"}, nil, "")
	if len(evses) != 1 {
		t.Fatalf("expected 1 grouped evse, got %d", len(evses))
	}
	if evses[0].UID != "SAP-01*7" {
		t.Fatalf("unexpected grouped uid: %s", evses[0].UID)
	}
	if len(evses[0].Connectors) != 2 {
		t.Fatalf("expected both connectors on grouped evse, got %d", len(evses[0].Connectors))
	}
	// Charging beats Available in the aggregation order.
	if evses[0].Status != ocpi.EvseStatusCharging {
		t.Fatalf("unexpected aggregated status: %s", evses[0].Status)
	}
}

func TestAggregateStatus_WorstWins(t *testing.T) {
	cases := []struct {
		name     string
		statuses []masterdata.ConnectorStatus
		want     masterdata.ConnectorStatus
	}{
		{"all available", []masterdata.ConnectorStatus{masterdata.ConnectorStatusAvailable, masterdata.ConnectorStatusAvailable}, masterdata.ConnectorStatusAvailable},
		{"charging beats occupied", []masterdata.ConnectorStatus{masterdata.ConnectorStatusOccupied, masterdata.ConnectorStatusCharging}, masterdata.ConnectorStatusCharging},
		{"faulted beats charging", []masterdata.ConnectorStatus{masterdata.ConnectorStatusCharging, masterdata.ConnectorStatusFaulted}, masterdata.ConnectorStatusFaulted},
		{"preparing ranks as occupied", []masterdata.ConnectorStatus{masterdata.ConnectorStatusAvailable, masterdata.ConnectorStatusPreparing}, masterdata.ConnectorStatusPreparing},
		{"all unavailable stays unavailable", []masterdata.ConnectorStatus{masterdata.ConnectorStatusUnavailable, masterdata.ConnectorStatusUnavailable}, masterdata.ConnectorStatusUnavailable},
		{"unavailable beats charging", []masterdata.ConnectorStatus{masterdata.ConnectorStatusCharging, masterdata.ConnectorStatusUnavailable}, masterdata.ConnectorStatusUnavailable},
		{"faulted beats unavailable", []masterdata.ConnectorStatus{masterdata.ConnectorStatusUnavailable, masterdata.ConnectorStatusFaulted}, masterdata.ConnectorStatusFaulted},
		{"unknown status never reads available", []masterdata.ConnectorStatus{"Bogus", "Bogus"}, masterdata.ConnectorStatus("Bogus")},
		{"empty defaults available", nil, masterdata.ConnectorStatusAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			connectors := make([]masterdata.Connector, 0, len(tc.statuses))
			for i, status := range tc.statuses {
				connectors = append(connectors, masterdata.Connector{ConnectorID: i + 1, Status: status})
			}
			if got := AggregateStatus(connectors); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEvseStatusFor_InternalCollapse(t *testing.T) {
	for _, status := range []masterdata.ConnectorStatus{
		masterdata.ConnectorStatusOccupied,
		masterdata.ConnectorStatusPreparing,
		masterdata.ConnectorStatusSuspendedEV,
		masterdata.ConnectorStatusSuspendedEVSE,
		masterdata.ConnectorStatusFinishing,
	} {
		if got := EvseStatusFor(status); got != ocpi.EvseStatusBlocked {
			t.Fatalf("expected %s to collapse to BLOCKED, got %s", status, got)
		}
	}
	if got := EvseStatusFor("Bogus"); got != ocpi.EvseStatusUnknown {
		t.Fatalf("expected UNKNOWN for unmapped status, got %s", got)
	}
}

func TestDeriveElectrical_DC(t *testing.T) {
	station := testStation()
	voltage, amperage, powerType := deriveElectrical(station, &station.Connectors[1])
	if voltage != 400 {
		t.Fatalf("expected nominal 400V for DC, got %d", voltage)
	}
	if amperage != 125 {
		t.Fatalf("expected 125A for 50kW at 400V, got %d", amperage)
	}
	if powerType != ocpi.PowerTypeDC {
		t.Fatalf("unexpected power type: %s", powerType)
	}
}

func TestDeriveElectrical_ACFallsBackToChargePoint(t *testing.T) {
	station := testStation()
	station.ChargePoints = []masterdata.ChargePoint{
		{ChargePointID: 7, ConnectorIDs: []int{1}, Voltage: 230, Amperage: 16, NumberOfConnectedPhase: 1},
	}
	station.Connectors[0].Voltage = 0
	station.Connectors[0].Amperage = 0
	station.Connectors[0].NumberOfConnectedPhase = 0

	voltage, amperage, powerType := deriveElectrical(station, &station.Connectors[0])
	if voltage != 230 || amperage != 16 {
		t.Fatalf("expected charge point profile, got %dV %dA", voltage, amperage)
	}
	if powerType != ocpi.PowerTypeAC1Phase {
		t.Fatalf("unexpected power type: %s", powerType)
	}
}

func TestConnectorStandard(t *testing.T) {
	if got := ConnectorStandard("T2"); got != "IEC_62196_T2" {
		t.Fatalf("unexpected standard: %s", got)
	}
	if got := ConnectorStandard("X9"); got != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for unmapped type, got %s", got)
	}
}
