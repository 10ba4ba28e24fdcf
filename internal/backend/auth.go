package backend

import (
	"context"
	"errors"
	"net/http"

	"ticket-portal/internal/status"
	"ticket-portal/models"
)

// Login authenticates a vendor. Accounts without the vendor or admin role
// cannot hold a vendor session.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthReply, error) {
	var reply models.AuthReply
	if err := c.do(ctx, request{op: "auth.login", method: http.MethodPost, path: "/auth/login", body: creds}, &reply); err != nil {
		return nil, err
	}
	if err := checkToken(&reply); err != nil {
		return nil, err
	}
	if reply.Role == "" && reply.Vendor != nil {
		reply.Role = reply.Vendor.Role
	}
	if err := checkVendorRole(&reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Register creates a vendor account from the combined account and
// business details. A reply carrying a token logs the vendor straight in
// and is held to the same role rule as Login.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.AuthReply, error) {
	var reply models.AuthReply
	if err := c.do(ctx, request{op: "auth.register", method: http.MethodPost, path: "/auth/register", body: reg}, &reply); err != nil {
		return nil, err
	}
	if reply.Role == "" && reply.Vendor != nil {
		reply.Role = reply.Vendor.Role
	}
	if reply.Role == "" {
		reply.Role = models.RoleVendor
	}
	if reply.Token != "" {
		if err := checkVendorRole(&reply); err != nil {
			return nil, err
		}
	}
	return &reply, nil
}

// StaffLogin authenticates a staff member for ticket scanning.
func (c *Client) StaffLogin(ctx context.Context, creds models.Credentials) (*models.AuthReply, error) {
	var reply models.AuthReply
	if err := c.do(ctx, request{op: "staff.login", method: http.MethodPost, path: "/staff/login", body: creds}, &reply); err != nil {
		return nil, err
	}
	if err := checkToken(&reply); err != nil {
		return nil, err
	}
	if reply.Staff != nil && !reply.Staff.IsActive {
		return nil, status.Unauthorized("This staff account is inactive.")
	}
	reply.Role = models.RoleStaff
	return &reply, nil
}

func (c *Client) VendorProfile(ctx context.Context) (*models.VendorProfile, error) {
	var p models.VendorProfile
	if err := c.do(ctx, request{op: "vendor.profile", method: http.MethodGet, path: "/vendor/profile"}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateVendorProfile(ctx context.Context, p models.VendorProfile) (*models.VendorProfile, error) {
	var out models.VendorProfile
	if err := c.do(ctx, request{op: "vendor.profile.update", method: http.MethodPut, path: "/vendor/profile", body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func checkToken(reply *models.AuthReply) error {
	if reply.Token == "" {
		return status.Upstream("Login failed. Please try again.", errors.New("auth reply without token"))
	}
	return nil
}

// checkVendorRole keeps accounts without the vendor or admin role out of
// the vendor dashboard.
func checkVendorRole(reply *models.AuthReply) error {
	if reply.Role != models.RoleVendor && reply.Role != models.RoleAdmin {
		return status.Unauthorized("This account cannot access the vendor dashboard.")
	}
	return nil
}
