package mapper

import masterdata "chargenet-cloud/internal/masterdata/domain"

// DefaultTariffID is the terminal fallback when no rule matches.
const DefaultTariffID = "Default"

// TariffInput carries everything the resolution chain may inspect.
type TariffInput struct {
	TenantID        string
	Connector       *masterdata.Connector
	Station         *masterdata.ChargingStation
	SiteArea        *masterdata.SiteArea
	Site            *masterdata.Site
	TenantDefaultID string
}

// TariffOverride is one legacy override entry: the first entry whose
// non-empty selectors all match wins. Loaded from configuration instead of
// compiled per-customer branches.
type TariffOverride struct {
	TenantID   string `yaml:"tenant_id"`
	SiteAreaID string `yaml:"site_area_id"`
	StationID  string `yaml:"station_id"`
	TariffID   string `yaml:"tariff_id"`
}

func (o TariffOverride) matches(in TariffInput) bool {
	if o.TariffID == "" {
		return false
	}
	if o.TenantID != "" && o.TenantID != in.TenantID {
		return false
	}
	if o.SiteAreaID != "" && (in.SiteArea == nil || o.SiteAreaID != in.SiteArea.ID) {
		return false
	}
	if o.StationID != "" && (in.Station == nil || o.StationID != in.Station.ID) {
		return false
	}
	return true
}

// TariffResolver resolves the tariff id for a connector: first non-empty
// match along connector, station, site area, site, tenant default, the
// override table, then the literal default.
type TariffResolver struct {
	overrides []TariffOverride
}

// NewTariffResolver builds a resolver over the configured override table.
func NewTariffResolver(overrides []TariffOverride) *TariffResolver {
	return &TariffResolver{overrides: overrides}
}

// Resolve returns the first matching tariff id.
func (r *TariffResolver) Resolve(in TariffInput) string {
	if in.Connector != nil && in.Connector.TariffID != "" {
		return in.Connector.TariffID
	}
	if in.Station != nil && in.Station.TariffID != "" {
		return in.Station.TariffID
	}
	if in.SiteArea != nil && in.SiteArea.TariffID != "" {
		return in.SiteArea.TariffID
	}
	if in.Site != nil && in.Site.TariffID != "" {
		return in.Site.TariffID
	}
	if in.TenantDefaultID != "" {
		return in.TenantDefaultID
	}
	if r != nil {
		for _, override := range r.overrides {
			if override.matches(in) {
				return override.TariffID
			}
		}
	}
	return DefaultTariffID
}
