package valueobject

import "fmt"

// PaymentMode is the channel a repayment arrived through.
type PaymentMode struct {
	value string
}

const (
	paymentModeCash   = "cash"
	paymentModeOnline = "online"
	paymentModeCheque = "cheque"
)

var (
	PaymentModeCash   = PaymentMode{value: paymentModeCash}
	PaymentModeOnline = PaymentMode{value: paymentModeOnline}
	PaymentModeCheque = PaymentMode{value: paymentModeCheque}
)

var validPaymentModes = map[string]PaymentMode{
	paymentModeCash:   PaymentModeCash,
	paymentModeOnline: PaymentModeOnline,
	paymentModeCheque: PaymentModeCheque,
}

// NewPaymentMode creates a PaymentMode from a raw string.
func NewPaymentMode(s string) (PaymentMode, error) {
	v, ok := validPaymentModes[s]
	if !ok {
		return PaymentMode{}, fmt.Errorf("invalid payment mode: %q", s)
	}
	return v, nil
}

func (m PaymentMode) String() string              { return m.value }
func (m PaymentMode) IsZero() bool                { return m.value == "" }
func (m PaymentMode) Equal(other PaymentMode) bool { return m.value == other.value }
