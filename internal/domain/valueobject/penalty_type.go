package valueobject

// PenaltyType selects how a late-payment surcharge scales with lateness.
type PenaltyType struct {
	value string
}

const (
	penaltyTypePerDay     = "per_day"
	penaltyTypePerWeek    = "per_week"
	penaltyTypeFixedTotal = "fixed_total"
)

var (
	PenaltyTypePerDay     = PenaltyType{value: penaltyTypePerDay}
	PenaltyTypePerWeek    = PenaltyType{value: penaltyTypePerWeek}
	PenaltyTypeFixedTotal = PenaltyType{value: penaltyTypeFixedTotal}
)

var validPenaltyTypes = map[string]PenaltyType{
	penaltyTypePerDay:     PenaltyTypePerDay,
	penaltyTypePerWeek:    PenaltyTypePerWeek,
	penaltyTypeFixedTotal: PenaltyTypeFixedTotal,
}

// ParsePenaltyType resolves a raw policy name. Unknown or empty names resolve
// to per_day and report ok=false so callers can log the fallback.
func ParsePenaltyType(s string) (PenaltyType, bool) {
	v, ok := validPenaltyTypes[s]
	if !ok {
		return PenaltyTypePerDay, false
	}
	return v, true
}

func (p PenaltyType) String() string              { return p.value }
func (p PenaltyType) IsZero() bool                { return p.value == "" }
func (p PenaltyType) Equal(other PenaltyType) bool { return p.value == other.value }
