package sandbox

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ticket-portal/models"
	"ticket-portal/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

func (s *Server) createBooking(withPayment bool) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req models.BookingRequest
		if err := decode(r, &req); err != nil {
			fail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" || !strings.Contains(req.Email, "@") {
			fail(w, http.StatusBadRequest, "Customer name and a valid email are required")
			return
		}
		if req.Quantity < 1 {
			fail(w, http.StatusBadRequest, "Quantity must be at least 1")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		cat, ok := s.categories[req.TicketCategoryID]
		if !ok {
			fail(w, http.StatusNotFound, "Ticket category not found")
			return
		}
		ev := s.events[cat.EventID]
		if ev == nil || !ev.Published(true) {
			fail(w, http.StatusBadRequest, "This event is not open for booking")
			return
		}
		if cat.Status != models.TicketAvailable {
			fail(w, http.StatusBadRequest, fmt.Sprintf("%s tickets are not available", cat.Name))
			return
		}
		if avail := cat.Available(); req.Quantity > avail {
			if avail == 0 {
				fail(w, http.StatusConflict, fmt.Sprintf("%s tickets are sold out", cat.Name))
			} else {
				fail(w, http.StatusConflict, fmt.Sprintf("Only %d %s tickets left", avail, cat.Name))
			}
			return
		}
		if limit, ok := ev.TicketCap(); ok {
			held := 0
			for _, b := range s.bookings {
				if b.EventID == ev.ID && b.Status != models.BookingCancelled && strings.EqualFold(b.CustomerEmail, req.Email) {
					held += b.Quantity
				}
			}
			if held+req.Quantity > limit {
				fail(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d tickets per email for this event", limit))
				return
			}
		}

		ref, err := utils.GenerateReference("BK")
		if err != nil {
			fail(w, http.StatusInternalServerError, "Could not create booking")
			return
		}
		b := &models.Booking{
			ID:               uuid.NewString(),
			Reference:        ref,
			EventID:          ev.ID,
			TicketCategoryID: cat.ID,
			Quantity:         req.Quantity,
			CustomerName:     req.Name,
			CustomerEmail:    req.Email,
			CustomerPhone:    req.Phone,
			DeliveryMethod:   req.DeliveryMethod,
			TotalPrice:       cat.Total(req.Quantity),
			Status:           models.BookingPending,
			CreatedAt:        s.now(),
		}
		cat.Sold += req.Quantity

		if !withPayment || b.TotalPrice.IsZero() {
			if err := issueTickets(b); err != nil {
				cat.Sold -= req.Quantity
				fail(w, http.StatusInternalServerError, "Could not issue tickets")
				return
			}
		}
		s.bookings[b.Reference] = b
		reply(w, http.StatusCreated, *b)
	}
}

// issueTickets confirms b with one code and one QR image per ticket.
func issueTickets(b *models.Booking) error {
	codes := make([]string, 0, b.Quantity)
	qrs := make([]string, 0, b.Quantity)
	for i := 0; i < b.Quantity; i++ {
		code, err := utils.GenerateCode(6)
		if err != nil {
			return err
		}
		code = fmt.Sprintf("%s-%d-%s", b.Reference, i+1, code)
		png, err := qrcode.Encode(code, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("qrcode.Encode: %w", err)
		}
		codes = append(codes, code)
		qrs = append(qrs, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(png))
	}
	b.TicketCodes = codes
	b.QRCodes = qrs
	b.Status = models.BookingConfirmed
	return nil
}

func (s *Server) bookingByReference(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[ps.ByName("ref")]
	if !ok {
		fail(w, http.StatusNotFound, "Booking not found")
		return
	}
	reply(w, http.StatusOK, *b)
}

func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req models.PaymentOrder
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[req.Reference]
	if !ok {
		fail(w, http.StatusNotFound, "Booking not found")
		return
	}
	if b.Status != models.BookingPending {
		fail(w, http.StatusBadRequest, "Booking is not awaiting payment")
		return
	}

	o := &order{
		trackingID:  uuid.NewString(),
		reference:   b.Reference,
		callbackURL: req.CallbackURL,
		status:      models.PaymentPending,
		seq:         len(s.orders) + 1,
	}
	s.orders[o.trackingID] = o
	reply(w, http.StatusOK, models.PaymentOrderReply{
		RedirectURL:     s.baseURL + "/pay/" + o.trackingID,
		OrderTrackingID: o.trackingID,
	})
}

func (s *Server) paymentStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ref := r.URL.Query().Get("reference")
	tracking := r.URL.Query().Get("orderTrackingId")

	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(ref, tracking)
	if o == nil {
		fail(w, http.StatusNotFound, "Payment not found")
		return
	}
	reply(w, http.StatusOK, models.PaymentStatusReply{Status: o.status, Message: o.message})
}

// findOrder must be called with s.mu held. Without a tracking id the most
// recent order for the reference wins.
func (s *Server) findOrder(reference, tracking string) *order {
	if tracking != "" {
		o, ok := s.orders[tracking]
		if !ok || (reference != "" && o.reference != reference) {
			return nil
		}
		return o
	}
	var found *order
	for _, o := range s.orders {
		if o.reference == reference && (found == nil || o.seq > found.seq) {
			found = o
		}
	}
	return found
}

// providerPage plays the payment provider: it settles the order and sends
// the customer back to the callback URL.
func (s *Server) providerPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	outcome := strings.ToUpper(r.URL.Query().Get("outcome"))
	if outcome == "" {
		outcome = models.PaymentCompleted
	}

	s.mu.Lock()
	o, ok := s.orders[ps.ByName("tracking")]
	if ok {
		s.settle(o, outcome, "")
	}
	s.mu.Unlock()
	if !ok {
		fail(w, http.StatusNotFound, "Payment not found")
		return
	}

	target, err := url.Parse(o.callbackURL)
	if err != nil || o.callbackURL == "" {
		reply(w, http.StatusOK, map[string]string{"status": outcome})
		return
	}
	q := target.Query()
	q.Set("OrderTrackingId", o.trackingID)
	q.Set("OrderMerchantReference", o.reference)
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// Settle moves the newest payment order of reference to status, as the
// provider would.
func (s *Server) Settle(reference, status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(reference, "")
	if o == nil {
		return fmt.Errorf("no payment order for %s", reference)
	}
	s.settle(o, strings.ToUpper(status), message)
	return nil
}

// settle must be called with s.mu held.
func (s *Server) settle(o *order, status, message string) {
	if o.status == models.PaymentCompleted {
		return
	}
	o.status = status
	o.message = message

	b := s.bookings[o.reference]
	if b == nil {
		return
	}
	switch status {
	case models.PaymentCompleted:
		if b.Status == models.BookingPending {
			if err := issueTickets(b); err != nil {
				o.status = models.PaymentPending
			}
		}
	case models.PaymentFailed:
		if b.Status == models.BookingPending {
			b.Status = models.BookingCancelled
			if c := s.categories[b.TicketCategoryID]; c != nil {
				c.Sold -= b.Quantity
			}
		}
	}
}
