package booking

// State is the checkout's projection of what the backend knows about the
// booking and its payment.
type State int

const (
	Selecting State = iota
	Submitting
	AwaitingPayment
	VerifyingPayment
	PendingSettlement
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case Submitting:
		return "submitting"
	case AwaitingPayment:
		return "awaiting_payment"
	case VerifyingPayment:
		return "verifying_payment"
	case PendingSettlement:
		return "pending_settlement"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further backend call can change the state
// without a new user action.
func (s State) Terminal() bool {
	return s == Confirmed || s == Failed
}
