package mapper

import (
	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
)

// connectorStandards maps internal connector types to OCPI standards.
// Unmapped variants resolve to the OCPI unknown value handled by the caller.
var connectorStandards = map[string]string{
	"T1":  "IEC_62196_T1",
	"T2":  "IEC_62196_T2",
	"T2C": "IEC_62196_T2_COMBO",
	"CCS": "IEC_62196_T2_COMBO",
	"C":   "CHADEMO",
	"D":   "DOMESTIC_F",
}

// ConnectorStandard returns the OCPI standard for an internal connector type.
func ConnectorStandard(internalType string) string {
	if standard, ok := connectorStandards[internalType]; ok {
		return standard
	}
	return "UNKNOWN"
}

// evseStatuses maps internal connector statuses to the OCPI EVSE vocabulary.
// PREPARING, SUSPENDED_EV, SUSPENDED_EVSE and FINISHING all collapse into
// BLOCKED; the roaming partner only needs to know the outlet is not free.
var evseStatuses = map[masterdata.ConnectorStatus]ocpi.EvseStatus{
	masterdata.ConnectorStatusAvailable:     ocpi.EvseStatusAvailable,
	masterdata.ConnectorStatusOccupied:      ocpi.EvseStatusBlocked,
	masterdata.ConnectorStatusPreparing:     ocpi.EvseStatusBlocked,
	masterdata.ConnectorStatusSuspendedEV:   ocpi.EvseStatusBlocked,
	masterdata.ConnectorStatusSuspendedEVSE: ocpi.EvseStatusBlocked,
	masterdata.ConnectorStatusFinishing:     ocpi.EvseStatusBlocked,
	masterdata.ConnectorStatusCharging:      ocpi.EvseStatusCharging,
	masterdata.ConnectorStatusReserved:      ocpi.EvseStatusReserved,
	masterdata.ConnectorStatusUnavailable:   ocpi.EvseStatusInoperative,
	masterdata.ConnectorStatusFaulted:       ocpi.EvseStatusOutOfOrder,
}

// EvseStatusFor maps an internal connector status to its OCPI EVSE status.
func EvseStatusFor(status masterdata.ConnectorStatus) ocpi.EvseStatus {
	if mapped, ok := evseStatuses[status]; ok {
		return mapped
	}
	return ocpi.EvseStatusUnknown
}

// connectorStatuses is the reverse direction, used when remote EVSE state is
// folded back into internal records during reconciliation.
var connectorStatuses = map[ocpi.EvseStatus]masterdata.ConnectorStatus{
	ocpi.EvseStatusAvailable:   masterdata.ConnectorStatusAvailable,
	ocpi.EvseStatusBlocked:     masterdata.ConnectorStatusOccupied,
	ocpi.EvseStatusCharging:    masterdata.ConnectorStatusCharging,
	ocpi.EvseStatusInoperative: masterdata.ConnectorStatusUnavailable,
	ocpi.EvseStatusOutOfOrder:  masterdata.ConnectorStatusFaulted,
	ocpi.EvseStatusReserved:    masterdata.ConnectorStatusReserved,
}

// ConnectorStatusFor maps an OCPI EVSE status back to the internal vocabulary.
func ConnectorStatusFor(status ocpi.EvseStatus) masterdata.ConnectorStatus {
	if mapped, ok := connectorStatuses[status]; ok {
		return mapped
	}
	return masterdata.ConnectorStatusUnavailable
}

// statusAggregationRank ranks internal statuses for the parallel-charging
// collapse; the worst observed state wins. Higher rank wins.
var statusAggregationRank = map[masterdata.ConnectorStatus]int{
	masterdata.ConnectorStatusAvailable:   0,
	masterdata.ConnectorStatusOccupied:    1,
	masterdata.ConnectorStatusCharging:    2,
	masterdata.ConnectorStatusUnavailable: 3,
	masterdata.ConnectorStatusFaulted:     4,
}

func statusRank(status masterdata.ConnectorStatus) int {
	switch status {
	case masterdata.ConnectorStatusPreparing,
		masterdata.ConnectorStatusSuspendedEV,
		masterdata.ConnectorStatusSuspendedEVSE,
		masterdata.ConnectorStatusFinishing,
		masterdata.ConnectorStatusReserved:
		status = masterdata.ConnectorStatusOccupied
	}
	if rank, ok := statusAggregationRank[status]; ok {
		return rank
	}
	// A status the ladder does not know must never advertise a free outlet.
	return statusAggregationRank[masterdata.ConnectorStatusUnavailable]
}

// AggregateStatus evaluates grouped connectors against the priority order and
// returns the highest-priority status found.
func AggregateStatus(connectors []masterdata.Connector) masterdata.ConnectorStatus {
	best := masterdata.ConnectorStatusAvailable
	bestRank := -1
	for _, connector := range connectors {
		if rank := statusRank(connector.Status); rank > bestRank {
			bestRank = rank
			best = connector.Status
		}
	}
	if bestRank < 0 {
		return masterdata.ConnectorStatusAvailable
	}
	return best
}
