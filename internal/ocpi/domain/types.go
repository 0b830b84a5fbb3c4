package ocpi

import "time"

// EvseStatus is the OCPI EVSE status vocabulary.
type EvseStatus string

const (
	EvseStatusAvailable   EvseStatus = "AVAILABLE"
	EvseStatusBlocked     EvseStatus = "BLOCKED"
	EvseStatusCharging    EvseStatus = "CHARGING"
	EvseStatusInoperative EvseStatus = "INOPERATIVE"
	EvseStatusOutOfOrder  EvseStatus = "OUTOFORDER"
	EvseStatusPlanned     EvseStatus = "PLANNED"
	EvseStatusRemoved     EvseStatus = "REMOVED"
	EvseStatusReserved    EvseStatus = "RESERVED"
	EvseStatusUnknown     EvseStatus = "UNKNOWN"
)

// SessionStatus is the OCPI session status vocabulary.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusInvalid   SessionStatus = "INVALID"
)

// PowerType describes the electrical supply of a connector.
type PowerType string

const (
	PowerTypeAC1Phase PowerType = "AC_1_PHASE"
	PowerTypeAC3Phase PowerType = "AC_3_PHASE"
	PowerTypeDC       PowerType = "DC"
)

// TokenType is derived locally, never trusted from the remote party.
type TokenType string

const (
	TokenTypeRFID  TokenType = "RFID"
	TokenTypeOther TokenType = "OTHER"
)

// WhitelistType controls remote authorization caching.
type WhitelistType string

const (
	WhitelistAlways         WhitelistType = "ALWAYS"
	WhitelistAllowed        WhitelistType = "ALLOWED"
	WhitelistAllowedOffline WhitelistType = "ALLOWED_OFFLINE"
	WhitelistNever          WhitelistType = "NEVER"
)

// DimensionType identifies a charging period measurement.
type DimensionType string

const (
	DimensionEnergy      DimensionType = "ENERGY"
	DimensionParkingTime DimensionType = "PARKING_TIME"
)

// GeoLocation carries coordinates as decimal-degree strings, per the wire format.
type GeoLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Connector is the OCPI projection of one physical outlet.
type Connector struct {
	ID          string    `json:"id"`
	Standard    string    `json:"standard"`
	Format      string    `json:"format"`
	PowerType   PowerType `json:"power_type"`
	Voltage     int       `json:"voltage"`
	Amperage    int       `json:"amperage"`
	TariffID    string    `json:"tariff_id,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Evse is the OCPI chargeable-outlet unit. One internal charge point maps to
// one Evse when its connectors cannot charge in parallel, otherwise to one
// Evse per connector.
type Evse struct {
	UID          string       `json:"uid"`
	EvseID       string       `json:"evse_id,omitempty"`
	Status       EvseStatus   `json:"status"`
	Capabilities []string     `json:"capabilities,omitempty"`
	Connectors   []Connector  `json:"connectors"`
	Coordinates  *GeoLocation `json:"coordinates,omitempty"`
	LastUpdated  time.Time    `json:"last_updated"`
}

// Location is the OCPI projection of a Site.
type Location struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	PostalCode  string      `json:"postal_code"`
	Country     string      `json:"country"`
	Coordinates GeoLocation `json:"coordinates"`
	Evses       []Evse      `json:"evses,omitempty"`
	LastUpdated time.Time   `json:"last_updated"`
}

// CdrDimension is one measured quantity inside a charging period.
type CdrDimension struct {
	Type   DimensionType `json:"type"`
	Volume float64       `json:"volume"`
}

// ChargingPeriod groups dimensions starting at one point in time.
type ChargingPeriod struct {
	StartDateTime time.Time      `json:"start_date_time"`
	Dimensions    []CdrDimension `json:"dimensions"`
}

// Session is the wire representation of a charge in progress or completed.
// The id equals the stringified internal transaction id, 1:1.
type Session struct {
	ID              string           `json:"id"`
	StartDatetime   time.Time        `json:"start_datetime"`
	EndDatetime     *time.Time       `json:"end_datetime,omitempty"`
	Kwh             float64          `json:"kwh"`
	AuthID          string           `json:"auth_id"`
	AuthorizationID string           `json:"authorization_id,omitempty"`
	AuthMethod      string           `json:"auth_method"`
	Location        *Location        `json:"location,omitempty"`
	Currency        string           `json:"currency"`
	ChargingPeriods []ChargingPeriod `json:"charging_periods,omitempty"`
	TotalCost       float64          `json:"total_cost"`
	Status          SessionStatus    `json:"status"`
	LastUpdated     time.Time        `json:"last_updated"`
}

// Cdr is the final billing record of a session, created at most once.
type Cdr struct {
	ID               string           `json:"id"`
	StartDateTime    time.Time        `json:"start_date_time"`
	StopDateTime     time.Time        `json:"stop_date_time"`
	AuthID           string           `json:"auth_id"`
	AuthMethod       string           `json:"auth_method"`
	Location         *Location        `json:"location,omitempty"`
	Currency         string           `json:"currency"`
	ChargingPeriods  []ChargingPeriod `json:"charging_periods"`
	TotalCost        float64          `json:"total_cost"`
	TotalEnergy      float64          `json:"total_energy"`
	TotalTime        float64          `json:"total_time"`
	TotalParkingTime float64          `json:"total_parking_time,omitempty"`
	LastUpdated      time.Time        `json:"last_updated"`
}

// Token is a remote credential mapped 1:1 to an internal Tag.
type Token struct {
	UID          string        `json:"uid"`
	Type         TokenType     `json:"type"`
	AuthID       string        `json:"auth_id"`
	VisualNumber string        `json:"visual_number,omitempty"`
	Issuer       string        `json:"issuer"`
	Valid        bool          `json:"valid"`
	Whitelist    WhitelistType `json:"whitelist"`
	Language     string        `json:"language,omitempty"`
	LastUpdated  time.Time     `json:"last_updated"`
}

// TokenTypeFor derives a token type from the identifier. Identifiers of the
// common RFID lengths are treated as RFID cards, everything else is OTHER.
func TokenTypeFor(uid string) TokenType {
	switch len(uid) {
	case 8, 14, 20:
		return TokenTypeRFID
	default:
		return TokenTypeOther
	}
}
