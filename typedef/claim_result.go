package typedef

// ClaimRejection enumerates why a claim attempt was refused.
type ClaimRejection int8

const (
	RejectNone ClaimRejection = iota
	RejectMapLocked
	RejectNotEligible
	RejectReclaimDisallowed
	RejectTerritoryFull
	RejectAlreadyClaimed // backend lost-race variant of TerritoryFull
	RejectNetworkFailure
	RejectValidation
)

// Benign reports whether the rejection should be suppressed from user-facing
// notification. Re-clicking an occupied spot or losing a race for the last slot
// is tolerated silently; everything else surfaces a warning.
func (r ClaimRejection) Benign() bool {
	return r == RejectTerritoryFull || r == RejectAlreadyClaimed
}

func (r ClaimRejection) String() string {
	switch r {
	case RejectNone:
		return "ok"
	case RejectMapLocked:
		return "map is locked"
	case RejectNotEligible:
		return "not eligible on this map"
	case RejectReclaimDisallowed:
		return "reclaiming is disabled on this map"
	case RejectTerritoryFull:
		return "spot is full"
	case RejectAlreadyClaimed:
		return "spot already claimed"
	case RejectNetworkFailure:
		return "network failure"
	case RejectValidation:
		return "validation failed"
	default:
		return "unknown rejection"
	}
}

// ClaimResult is the outcome of a claim transition. Released carries the
// territory implicitly vacated when reclaiming moved the user to a new spot.
type ClaimResult struct {
	Rejection ClaimRejection
	Claimed   string // territory id the user now occupies, if any
	Released  string // territory id vacated by an implicit reclaim release
	NoOp      bool   // user already occupied the target spot
}

// OK reports whether the transition was accepted (including idempotent no-ops).
func (cr ClaimResult) OK() bool {
	return cr.Rejection == RejectNone
}
