package sandbox

import (
	"net/http"
	"slices"
	"strings"

	"ticket-portal/models"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedVendor creates an approved vendor account and returns its profile.
func (s *Server) SeedVendor(name, email, password string) (models.VendorProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.VendorProfile{}, err
	}
	p := models.VendorProfile{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          strings.ToLower(email),
		IsApproved:     true,
		CommissionRate: decimal.RequireFromString("0.05"),
		Role:           models.RoleVendor,
	}
	s.mu.Lock()
	s.vendors[p.Email] = &account{vendor: p, passwordHash: hash}
	s.mu.Unlock()
	return p, nil
}

// SeedStaff creates an active staff member for vendorID with scanning
// rights on the given events.
func (s *Server) SeedStaff(vendorID, name, email, password string, eventIDs ...string) (models.Staff, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.Staff{}, err
	}
	st := models.Staff{
		ID:          uuid.NewString(),
		VendorID:    vendorID,
		Name:        name,
		Email:       strings.ToLower(email),
		Permissions: []string{models.PermissionScanTickets},
		IsActive:    true,
		EventIDs:    eventIDs,
	}
	s.mu.Lock()
	s.staff[st.ID] = &staffAccount{staff: st, passwordHash: hash}
	s.mu.Unlock()
	return st, nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var creds models.Credentials
	if err := decode(r, &creds); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.vendors[strings.ToLower(creds.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(creds.Password)) != nil {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(acc.vendor.ID, acc.vendor.Role)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Could not sign in")
		return
	}
	v := acc.vendor
	reply(w, http.StatusOK, models.AuthReply{Token: token, Role: v.Role, Vendor: &v})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reg models.Registration
	if err := decode(r, &reg); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if reg.Name == "" || !strings.Contains(reg.Email, "@") || len(reg.Password) < 8 {
		fail(w, http.StatusBadRequest, "Name, a valid email and a password of at least 8 characters are required")
		return
	}
	if reg.CompanyName == "" {
		fail(w, http.StatusBadRequest, "Company name is required")
		return
	}

	s.mu.Lock()
	_, taken := s.vendors[strings.ToLower(reg.Email)]
	s.mu.Unlock()
	if taken {
		fail(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	p, err := s.SeedVendor(reg.Name, reg.Email, reg.Password)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Could not register")
		return
	}

	s.mu.Lock()
	acc := s.vendors[p.Email]
	acc.vendor.Phone = reg.Phone
	acc.vendor.CompanyName = reg.CompanyName
	acc.vendor.BusinessType = reg.BusinessType
	acc.vendor.Address = reg.Address
	acc.vendor.IsApproved = false
	v := acc.vendor
	s.mu.Unlock()

	token, err := s.issueToken(v.ID, v.Role)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Could not register")
		return
	}
	reply(w, http.StatusCreated, models.AuthReply{Token: token, Role: v.Role, Vendor: &v})
}

// vendorByID must be called with s.mu held.
func (s *Server) vendorByID(id string) *account {
	for _, acc := range s.vendors {
		if acc.vendor.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.vendorByID(vendorID)
	if acc == nil {
		fail(w, http.StatusNotFound, "Vendor not found")
		return
	}
	reply(w, http.StatusOK, acc.vendor)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params, vendorID string) {
	var in models.VendorProfile
	if err := decode(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.vendorByID(vendorID)
	if acc == nil {
		fail(w, http.StatusNotFound, "Vendor not found")
		return
	}
	// Approval, commission and role belong to the platform, not the vendor.
	if in.Name != "" {
		acc.vendor.Name = in.Name
	}
	acc.vendor.Phone = in.Phone
	acc.vendor.CompanyName = in.CompanyName
	acc.vendor.BusinessType = in.BusinessType
	acc.vendor.Address = in.Address
	reply(w, http.StatusOK, acc.vendor)
}

// Staff.

func (s *Server) listStaff(w http.ResponseWriter, r *http.Request, _ httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Staff{}
	for _, st := range s.staff {
		if st.staff.VendorID == vendorID {
			out = append(out, st.staff)
		}
	}
	slices.SortFunc(out, func(a, b models.Staff) int { return strings.Compare(a.Name, b.Name) })
	reply(w, http.StatusOK, out)
}

func (s *Server) createStaff(w http.ResponseWriter, r *http.Request, _ httprouter.Params, vendorID string) {
	var in models.StaffInput
	if err := decode(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" || !strings.Contains(in.Email, "@") || len(in.Password) < 8 {
		fail(w, http.StatusBadRequest, "Name, a valid email and a password of at least 8 characters are required")
		return
	}

	st, err := s.SeedStaff(vendorID, in.Name, in.Email, in.Password)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Could not create staff member")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.staff[st.ID]
	acc.staff.Phone = in.Phone
	acc.staff.Position = in.Position
	if in.Permissions != nil {
		acc.staff.Permissions = in.Permissions
	}
	if in.IsActive != nil {
		acc.staff.IsActive = *in.IsActive
	}
	reply(w, http.StatusCreated, acc.staff)
}

// ownedStaff must be called with s.mu held.
func (s *Server) ownedStaff(w http.ResponseWriter, id, vendorID string) (*staffAccount, bool) {
	st, ok := s.staff[id]
	if !ok || st.staff.VendorID != vendorID {
		fail(w, http.StatusNotFound, "Staff member not found")
		return nil, false
	}
	return st, true
}

func (s *Server) updateStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	var in models.StaffInput
	if err := decode(r, &in); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.ownedStaff(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}
	if in.Name != "" {
		st.staff.Name = in.Name
	}
	st.staff.Phone = in.Phone
	st.staff.Position = in.Position
	if in.Permissions != nil {
		st.staff.Permissions = in.Permissions
	}
	if in.IsActive != nil {
		st.staff.IsActive = *in.IsActive
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
		if err != nil {
			fail(w, http.StatusInternalServerError, "Could not update staff member")
			return
		}
		st.passwordHash = hash
	}
	reply(w, http.StatusOK, st.staff)
}

func (s *Server) deleteStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.ownedStaff(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}
	delete(s.staff, st.staff.ID)
	reply(w, http.StatusOK, nil)
}

func (s *Server) assignStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.ownedStaff(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}
	if _, ok := s.ownedEvent(w, ps.ByName("eventId"), vendorID); !ok {
		return
	}
	if !st.staff.AssignedTo(ps.ByName("eventId")) {
		st.staff.EventIDs = append(st.staff.EventIDs, ps.ByName("eventId"))
	}
	reply(w, http.StatusOK, nil)
}

func (s *Server) unassignStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params, vendorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.ownedStaff(w, ps.ByName("id"), vendorID)
	if !ok {
		return
	}
	eventID := ps.ByName("eventId")
	st.staff.EventIDs = slices.DeleteFunc(st.staff.EventIDs, func(id string) bool { return id == eventID })
	reply(w, http.StatusOK, nil)
}

func (s *Server) staffLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var creds models.Credentials
	if err := decode(r, &creds); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	var acc *staffAccount
	for _, st := range s.staff {
		if st.staff.Email == strings.ToLower(creds.Email) {
			acc = st
			break
		}
	}
	s.mu.Unlock()
	if acc == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(creds.Password)) != nil {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !acc.staff.IsActive {
		fail(w, http.StatusForbidden, "This staff account is inactive")
		return
	}

	token, err := s.issueToken(acc.staff.ID, models.RoleStaff)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Could not sign in")
		return
	}
	st := acc.staff
	reply(w, http.StatusOK, models.AuthReply{Token: token, Role: models.RoleStaff, Staff: &st})
}

func (s *Server) staffEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params, staffID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[staffID]
	if !ok {
		fail(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	reply(w, http.StatusOK, s.sortedEvents(func(ev *models.Event) bool {
		return st.staff.AssignedTo(ev.ID)
	}))
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request, _ httprouter.Params, staffID string) {
	var req models.ScanRequest
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[staffID]
	if !ok || !st.staff.Can(models.PermissionScanTickets) {
		fail(w, http.StatusForbidden, "You do not have permission to scan tickets")
		return
	}
	if !st.staff.AssignedTo(req.EventID) {
		fail(w, http.StatusForbidden, "You are not assigned to this event")
		return
	}

	res := models.ScanResult{TicketCode: req.TicketCode, EventID: req.EventID, ScannedAt: s.now()}
	b := s.bookingForCode(req.TicketCode)
	switch {
	case b == nil || b.EventID != req.EventID:
		res.Message = "Ticket not valid for this event"
	case b.Status != models.BookingConfirmed:
		res.Message = "Booking is not confirmed"
		res.BookingReference = b.Reference
	default:
		res.BookingReference = b.Reference
		if at, seen := s.scanned[req.TicketCode]; seen {
			res.Message = "Already scanned at " + at.Format("15:04")
		} else {
			s.scanned[req.TicketCode] = res.ScannedAt
			res.Valid = true
			res.Message = "Valid ticket"
		}
	}
	s.scans = append(s.scans, scanRecord{staffID: staffID, result: res})
	reply(w, http.StatusOK, res)
}

// bookingForCode must be called with s.mu held.
func (s *Server) bookingForCode(code string) *models.Booking {
	for _, b := range s.bookings {
		if slices.Contains(b.TicketCodes, code) {
			return b
		}
	}
	return nil
}

func (s *Server) scanHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params, staffID string) {
	eventID := r.URL.Query().Get("eventId")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ScanResult{}
	for i := len(s.scans) - 1; i >= 0; i-- {
		rec := s.scans[i]
		if rec.staffID == staffID && (eventID == "" || rec.result.EventID == eventID) {
			out = append(out, rec.result)
		}
	}
	reply(w, http.StatusOK, out)
}
