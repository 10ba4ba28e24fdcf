package booking

import "ticket-portal/models"

// TicketCursor walks a booking's tickets one at a time. The index always
// stays within [0, n-1].
type TicketCursor struct {
	n int
	i int
}

func NewTicketCursor(n int) *TicketCursor {
	return &TicketCursor{n: n}
}

func (c *TicketCursor) Len() int   { return c.n }
func (c *TicketCursor) Index() int { return c.i }

func (c *TicketCursor) Next() int { return c.Seek(c.i + 1) }
func (c *TicketCursor) Prev() int { return c.Seek(c.i - 1) }

func (c *TicketCursor) Seek(i int) int {
	switch {
	case c.n == 0:
		c.i = 0
	case i < 0:
		c.i = 0
	case i > c.n-1:
		c.i = c.n - 1
	default:
		c.i = i
	}
	return c.i
}

func (c *TicketCursor) HasNext() bool { return c.i < c.n-1 }
func (c *TicketCursor) HasPrev() bool { return c.i > 0 }

type Ticket struct {
	Code    string `json:"code"`
	QRImage string `json:"qrImage"` // base64 PNG without data URI prefix
}

// TicketView is the read-only record shown once a booking is confirmed.
type TicketView struct {
	Booking *models.Booking `json:"booking"`
	Tickets []Ticket        `json:"tickets"`
}

func NewTicketView(b *models.Booking) *TicketView {
	n := min(len(b.TicketCodes), len(b.QRCodes))
	v := &TicketView{Booking: b, Tickets: make([]Ticket, 0, n)}
	for i := 0; i < n; i++ {
		v.Tickets = append(v.Tickets, Ticket{Code: b.TicketCodes[i], QRImage: b.QRImage(i)})
	}
	return v
}

// TicketPage is a single ticket of a view together with where the cursor
// can move from it.
type TicketPage struct {
	Reference string `json:"reference"`
	Ticket    Ticket `json:"ticket"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	HasPrev   bool   `json:"hasPrev"`
	HasNext   bool   `json:"hasNext"`
}

// Page returns the ticket at position i, clamped into range. It reports
// false when the view holds no tickets.
func (v *TicketView) Page(i int) (*TicketPage, bool) {
	if len(v.Tickets) == 0 {
		return nil, false
	}
	c := NewTicketCursor(len(v.Tickets))
	c.Seek(i)
	p := &TicketPage{
		Ticket:  v.Tickets[c.Index()],
		Index:   c.Index(),
		Total:   c.Len(),
		HasPrev: c.HasPrev(),
		HasNext: c.HasNext(),
	}
	if v.Booking != nil {
		p.Reference = v.Booking.Reference
	}
	return p, true
}
