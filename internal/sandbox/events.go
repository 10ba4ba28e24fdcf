package sandbox

import (
	"net/http"
	"slices"
	"strings"

	"ticket-portal/models"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

// SeedEvent stores an event and its categories, filling in ids.
func (s *Server) SeedEvent(ev models.Event, cats ...models.TicketCategory) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.TicketCategories = nil
	for _, c := range cats {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.EventID = ev.ID
		if c.Status == "" {
			c.Status = models.TicketAvailable
		}
		cp := c
		s.categories[c.ID] = &cp
	}
	s.events[ev.ID] = &ev
	return s.eventView(&ev)
}

// eventView must be called with s.mu held.
func (s *Server) eventView(ev *models.Event) models.Event {
	out := *ev
	out.TicketCategories = s.categoriesOf(ev.ID)
	return out
}

// categoriesOf must be called with s.mu held.
func (s *Server) categoriesOf(eventID string) []models.TicketCategory {
	var cats []models.TicketCategory
	for _, c := range s.categories {
		if c.EventID != eventID {
			continue
		}
		cp := *c
		if cp.Status == models.TicketAvailable && cp.Sold >= cp.Quantity {
			cp.Status = models.TicketSoldOut
		}
		cats = append(cats, cp)
	}
	slices.SortFunc(cats, func(a, b models.TicketCategory) int {
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return cats
}

func (s *Server) sortedEvents(keep func(*models.Event) bool) []models.Event {
	out := []models.Event{}
	for _, ev := range s.events {
		if keep(ev) {
			out = append(out, s.eventView(ev))
		}
	}
	slices.SortFunc(out, func(a, b models.Event) int {
		return a.StartDateTime.Compare(b.StartDateTime)
	})
	return out
}

func (s *Server) listPublicEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, http.StatusOK, s.sortedEvents(func(ev *models.Event) bool {
		return ev.Published(true)
	}))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[ps.ByName("id")]
	if !ok {
		fail(w, http.StatusNotFound, "Event not found")
		return
	}
	reply(w, http.StatusOK, s.eventView(ev))
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ps.ByName("id")]; !ok {
		fail(w, http.StatusNotFound, "Event not found")
		return
	}
	cats := s.categoriesOf(ps.ByName("id"))
	if cats == nil {
		cats = []models.TicketCategory{}
	}
	reply(w, http.StatusOK, cats)
}

func (s *Server) listVendorEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, http.StatusOK, s.sortedEvents(func(ev *models.Event) bool {
		return ev.VendorID == vendorID
	}))
}

func validEventInput(in models.EventInput) string {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return "Title is required"
	case strings.TrimSpace(in.Venue) == "":
		return "Venue is required"
	case in.StartDateTime.IsZero() || in.EndDateTime.IsZero():
		return "Start and end time are required"
	case !in.EndDateTime.After(in.StartDateTime):
		return "End time must be after start time"
	case in.Capacity < 0:
		return "Capacity cannot be negative"
	}
	return ""
}

func applyInput(ev *models.Event, in models.EventInput) {
	ev.Title = in.Title
	ev.Description = in.Description
	ev.ShortDescription = in.ShortDescription
	ev.StartDateTime = in.StartDateTime
	ev.EndDateTime = in.EndDateTime
	ev.Venue = in.Venue
	ev.Address = in.Address
	ev.Category = in.Category
	ev.Capacity = in.Capacity
	ev.MaxTicketsPerEmail = in.MaxTicketsPerEmail
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params, vendorID string) {
	var in models.EventInput
	if err := decode(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validEventInput(in); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev := &models.Event{ID: uuid.NewString(), VendorID: vendorID, Status: models.EventDraft}
	applyInput(ev, in)
	s.events[ev.ID] = ev
	reply(w, http.StatusCreated, s.eventView(ev))
}

// ownedEvent must be called with s.mu held.
func (s *Server) ownedEvent(w http.ResponseWriter, id, vendorID string) (*models.Event, bool) {
	ev, ok := s.events[id]
	if !ok || ev.VendorID != vendorID {
		fail(w, http.StatusNotFound, "Event not found")
		return nil, false
	}
	return ev, true
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	var in models.EventInput
	if err := decode(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validEventInput(in); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.ownedEvent(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}
	applyInput(ev, in)
	reply(w, http.StatusOK, s.eventView(ev))
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.ownedEvent(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}
	for _, b := range s.bookings {
		if b.EventID == ev.ID && b.Status != models.BookingCancelled {
			fail(w, http.StatusConflict, "Event has bookings and cannot be deleted; cancel it instead")
			return
		}
	}
	delete(s.events, ev.ID)
	for id, c := range s.categories {
		if c.EventID == ev.ID {
			delete(s.categories, id)
		}
	}
	reply(w, http.StatusOK, nil)
}

func (s *Server) eventAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.ownedEvent(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}

	switch ps.ByName("action") {
	case "publish":
		if ev.Status != models.EventDraft && ev.Status != "" {
			fail(w, http.StatusBadRequest, "Only draft events can be published")
			return
		}
		if len(s.categoriesOf(ev.ID)) == 0 {
			fail(w, http.StatusBadRequest, "Add at least one ticket category before publishing")
			return
		}
		ev.Status = models.EventPublished
	case "unpublish":
		if ev.Status != models.EventPublished {
			fail(w, http.StatusBadRequest, "Only published events can be unpublished")
			return
		}
		ev.Status = models.EventDraft
	case "cancel":
		if ev.Status == models.EventCancelled || ev.Status == models.EventCompleted {
			fail(w, http.StatusBadRequest, "Event can no longer be cancelled")
			return
		}
		ev.Status = models.EventCancelled
	default:
		fail(w, http.StatusNotFound, "Route not found")
		return
	}
	reply(w, http.StatusOK, s.eventView(ev))
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.ownedEvent(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}

	a := models.EventAnalytics{EventID: ev.ID, Revenue: decimal.Zero}
	perCat := map[string]*models.CategoryStats{}
	for _, c := range s.categoriesOf(ev.ID) {
		perCat[c.ID] = &models.CategoryStats{TicketCategoryID: c.ID, Name: c.Name, Revenue: decimal.Zero}
	}
	for _, b := range s.bookings {
		if b.EventID != ev.ID || b.Status != models.BookingConfirmed {
			continue
		}
		a.Bookings++
		a.TicketsSold += b.Quantity
		a.Revenue = a.Revenue.Add(b.TotalPrice)
		if cs, ok := perCat[b.TicketCategoryID]; ok {
			cs.Sold += b.Quantity
			cs.Revenue = cs.Revenue.Add(b.TotalPrice)
		}
	}
	for _, c := range s.categoriesOf(ev.ID) {
		a.Categories = append(a.Categories, *perCat[c.ID])
	}
	reply(w, http.StatusOK, a)
}
