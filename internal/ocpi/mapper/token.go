package mapper

import (
	"encoding/json"
	"fmt"
	"strings"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
)

// ValidateToken rejects a malformed wire token before any mutation.
func ValidateToken(token *ocpi.Token) error {
	if token == nil {
		return ocpi.NewValidationError("token", "token")
	}
	if token.UID == "" {
		return ocpi.NewValidationError("token", "uid")
	}
	if token.AuthID == "" {
		return ocpi.NewValidationError("token", "auth_id")
	}
	if token.Issuer == "" {
		return ocpi.NewValidationError("token", "issuer")
	}
	return nil
}

// VirtualUserEmail synthesizes the stable local identity for all tokens of
// one issuer on one roaming relation.
func VirtualUserEmail(issuer, partyID, countryCode string) string {
	return strings.ToLower(fmt.Sprintf("%s@%s.%s", issuer, partyID, countryCode))
}

// BuildTagFromToken maps a wire token onto a tag owned by the given external
// user. The tag id is the token uid; the token is kept verbatim for the
// reverse direction.
func BuildTagFromToken(token *ocpi.Token, tenantID, userID string) (*masterdata.Tag, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}
	// The stored type is derived from the identifier, not taken from the
	// wire; partners label card types inconsistently.
	stored := *token
	stored.Type = ocpi.TokenTypeFor(stored.UID)
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	return &masterdata.Tag{
		ID:           token.UID,
		TenantID:     tenantID,
		UserID:       userID,
		Issuer:       false,
		Active:       token.Valid,
		Description:  fmt.Sprintf("OCPI token for %s", token.Issuer),
		VisualID:     token.VisualNumber,
		LastChanged:  token.LastUpdated,
		OCPIToken:    raw,
		OCPITokenUID: token.UID,
	}, nil
}
