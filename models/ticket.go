package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	TicketAvailable   = "AVAILABLE"
	TicketSoldOut     = "SOLD_OUT"
	TicketUnavailable = "UNAVAILABLE"
)

// Currency is the only currency the portal prices in.
const Currency = "UGX"

// Money is an amount in UGX.
type Money = decimal.Decimal

type TicketCategory struct {
	ID       string `json:"id"`
	EventID  string `json:"eventId"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
	Status   string `json:"status"` // AVAILABLE, SOLD_OUT, UNAVAILABLE
}

// Available is the number of tickets still purchasable in the category.
func (c *TicketCategory) Available() int {
	if c.Status == TicketSoldOut || c.Status == TicketUnavailable {
		return 0
	}
	left := c.Quantity - c.Sold
	if left < 0 {
		return 0
	}
	return left
}

// Consistent reports whether sold never exceeds quantity.
func (c *TicketCategory) Consistent() bool {
	return c.Sold >= 0 && c.Sold <= c.Quantity && !c.Price.IsNegative()
}

// Total returns the price of quantity tickets.
func (c *TicketCategory) Total(quantity int) Money {
	return c.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// FormatMoney renders an amount as "UGX 100,000".
func FormatMoney(m Money) string {
	whole := m.Round(0).String()
	neg := false
	if len(whole) > 0 && whole[0] == '-' {
		neg = true
		whole = whole[1:]
	}
	out := make([]byte, 0, len(whole)+len(whole)/3)
	for i, ch := range []byte(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	if neg {
		return fmt.Sprintf("%s -%s", Currency, out)
	}
	return fmt.Sprintf("%s %s", Currency, out)
}
