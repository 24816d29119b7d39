package valueobject

import "fmt"

// InterestModel selects the EMI formula.
type InterestModel struct {
	value string
}

var (
	InterestModelFlat     = InterestModel{value: "flat"}
	InterestModelReducing = InterestModel{value: "reducing"}
)

// NewInterestModel creates an InterestModel from a raw string. An empty
// string selects the flat model, which is the one loans are created with.
func NewInterestModel(s string) (InterestModel, error) {
	switch s {
	case "", "flat":
		return InterestModelFlat, nil
	case "reducing":
		return InterestModelReducing, nil
	default:
		return InterestModel{}, fmt.Errorf("invalid interest model: %q", s)
	}
}

func (m InterestModel) String() string                { return m.value }
func (m InterestModel) Equal(other InterestModel) bool { return m.value == other.value }
