package models

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// PaymentAttempt ties a booking reference to a provider order. It lives only
// as long as the checkout that created it.
type PaymentAttempt struct {
	Reference       string `json:"reference"`
	OrderTrackingID string `json:"orderTrackingId"`
	RedirectURL     string `json:"redirectUrl"`
	Status          string `json:"status"` // PENDING, COMPLETED, FAILED
	Message         string `json:"message,omitempty"`
}

type PaymentOrder struct {
	Reference   string `json:"reference"`
	CallbackURL string `json:"callbackUrl"`
}

type PaymentOrderReply struct {
	RedirectURL     string `json:"redirectUrl"`
	OrderTrackingID string `json:"orderTrackingId"`
}

type PaymentStatusReply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PaymentNotice is what a provider return relays to the checkout that owns
// the booking.
type PaymentNotice struct {
	CheckoutID        string `json:"checkoutId"`
	Reference         string `json:"reference"`
	OrderTrackingID   string `json:"orderTrackingId"`
	MerchantReference string `json:"merchantReference,omitempty"`
}
