package negotiation

import "fmt"

// ConcessionKind is the closed set of concession archetypes the predictor
// knows how to price.
type ConcessionKind string

const (
	ConcessionWaivedFees     ConcessionKind = "waived_fees"
	ConcessionFirstMonthFree ConcessionKind = "first_month_free"
	ConcessionReducedDeposit ConcessionKind = "reduced_deposit"
	ConcessionParkingStorage ConcessionKind = "parking_storage"
	ConcessionEarlyMoveIn    ConcessionKind = "early_move_in"
)

// ConcessionKinds lists every kind in canonical order.
func ConcessionKinds() []ConcessionKind {
	return []ConcessionKind{
		ConcessionWaivedFees,
		ConcessionFirstMonthFree,
		ConcessionReducedDeposit,
		ConcessionParkingStorage,
		ConcessionEarlyMoveIn,
	}
}

// Recurring reports whether the concession repeats every month of the lease
// rather than applying once at signing.
func (k ConcessionKind) Recurring() bool {
	switch k {
	case ConcessionParkingStorage, ConcessionEarlyMoveIn:
		return true
	case ConcessionWaivedFees, ConcessionFirstMonthFree, ConcessionReducedDeposit:
		return false
	default:
		return false
	}
}

// Valid reports whether k is a member of the closed set.
func (k ConcessionKind) Valid() bool {
	switch k {
	case ConcessionWaivedFees, ConcessionFirstMonthFree, ConcessionReducedDeposit,
		ConcessionParkingStorage, ConcessionEarlyMoveIn:
		return true
	}
	return false
}

// ParseConcessionKind converts a wire string into a ConcessionKind.
func ParseConcessionKind(s string) (ConcessionKind, error) {
	k := ConcessionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown concession kind: %q", s)
	}
	return k, nil
}

// Tier buckets the combined opportunity/success score.
type Tier string

const (
	TierHotDeal           Tier = "hot_deal"
	TierStrongOpportunity Tier = "strong_opportunity"
	TierWorthTrying       Tier = "worth_trying"
)

// Valid reports whether t is a member of the closed set.
func (t Tier) Valid() bool {
	switch t {
	case TierHotDeal, TierStrongOpportunity, TierWorthTrying:
		return true
	}
	return false
}

// Confidence labels how much data support backs a result.
type Confidence string

const (
	ConfidenceHigh         Confidence = "high"
	ConfidenceModerate     Confidence = "moderate"
	ConfidenceExperimental Confidence = "experimental"
)

// Valid reports whether c is a member of the closed set.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceModerate, ConfidenceExperimental:
		return true
	}
	return false
}
