package mapper

import (
	"testing"

	masterdata "chargenet-cloud/internal/masterdata/domain"
)

func TestTariffResolve_ChainOrder(t *testing.T) {
	resolver := NewTariffResolver(nil)
	in := TariffInput{
		TenantID:        "tenant-a",
		Connector:       &masterdata.Connector{ConnectorID: 1, TariffID: "T-CONN"},
		Station:         &masterdata.ChargingStation{ID: "S1", TariffID: "T-STATION"},
		SiteArea:        &masterdata.SiteArea{ID: "SA1", TariffID: "T-AREA"},
		Site:            &masterdata.Site{ID: "SITE1", TariffID: "T-SITE"},
		TenantDefaultID: "T-TENANT",
	}

	if got := resolver.Resolve(in); got != "T-CONN" {
		t.Fatalf("expected connector tariff, got %s", got)
	}
	in.Connector.TariffID = ""
	if got := resolver.Resolve(in); got != "T-STATION" {
		t.Fatalf("expected station tariff, got %s", got)
	}
	in.Station.TariffID = ""
	if got := resolver.Resolve(in); got != "T-AREA" {
		t.Fatalf("expected site area tariff, got %s", got)
	}
	in.SiteArea.TariffID = ""
	if got := resolver.Resolve(in); got != "T-SITE" {
		t.Fatalf("expected site tariff, got %s", got)
	}
	in.Site.TariffID = ""
	if got := resolver.Resolve(in); got != "T-TENANT" {
		t.Fatalf("expected tenant default, got %s", got)
	}
	in.TenantDefaultID = ""
	if got := resolver.Resolve(in); got != DefaultTariffID {
		t.Fatalf("expected literal default, got %s", got)
	}
}

func TestTariffResolve_OverrideTable(t *testing.T) {
	resolver := NewTariffResolver([]TariffOverride{
		{TenantID: "tenant-b", TariffID: "T-OTHER"},
		{TenantID: "tenant-a", StationID: "S1", TariffID: "T-LEGACY"},
		{TenantID: "tenant-a", TariffID: "T-WIDE"},
	})
	in := TariffInput{
		TenantID: "tenant-a",
		Station:  &masterdata.ChargingStation{ID: "S1"},
	}

	if got := resolver.Resolve(in); got != "T-LEGACY" {
		t.Fatalf("expected first matching override, got %s", got)
	}

	in.Station.ID = "S2"
	if got := resolver.Resolve(in); got != "T-WIDE" {
		t.Fatalf("expected tenant-wide override, got %s", got)
	}
}

func TestTariffResolve_EntityTariffBeatsOverride(t *testing.T) {
	resolver := NewTariffResolver([]TariffOverride{
		{TenantID: "tenant-a", TariffID: "T-LEGACY"},
	})
	in := TariffInput{
		TenantID:  "tenant-a",
		Connector: &masterdata.Connector{ConnectorID: 1, TariffID: "T-CONN"},
	}
	if got := resolver.Resolve(in); got != "T-CONN" {
		t.Fatalf("expected entity tariff to win, got %s", got)
	}
}
