package portal

import (
	"context"

	"ticket-portal/internal/query"
	"ticket-portal/models"
)

func (h *Hooks) Login(ctx context.Context, creds models.Credentials) (*models.AuthReply, error) {
	return h.backend.Login(ctx, creds)
}

func (h *Hooks) Register(ctx context.Context, reg models.Registration) (*models.AuthReply, error) {
	return h.backend.Register(ctx, reg)
}

func (h *Hooks) StaffLogin(ctx context.Context, creds models.Credentials) (*models.AuthReply, error) {
	return h.backend.StaffLogin(ctx, creds)
}

func (h *Hooks) VendorProfile(ctx context.Context, vendorID string) (*models.VendorProfile, error) {
	return fetchVendor(ctx, h, vendorID, profileKey(vendorID), h.backend.VendorProfile)
}

func (h *Hooks) UpdateVendorProfile(ctx context.Context, vendorID string, p models.VendorProfile) (*models.VendorProfile, error) {
	return mutateVendor(ctx, h, vendorID, "vendor.profile.update", []query.Key{profileKey(vendorID)}, func(ctx context.Context) (*models.VendorProfile, error) {
		return h.backend.UpdateVendorProfile(ctx, p)
	})
}

// ForgetVendor drops everything cached for a vendor, used on logout.
func (h *Hooks) ForgetVendor(ctx context.Context, vendorID string) error {
	if err := vendorScope(vendorID); err != nil {
		return err
	}
	return h.cache.Invalidate(ctx, vendorKey(vendorID))
}
