package models

const (
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
)

type VendorProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	BusinessType   string `json:"businessType,omitempty"`
	Address        string `json:"address,omitempty"`
	IsApproved     bool   `json:"isApproved"`
	CommissionRate Money  `json:"commissionRate"`
	Role           string `json:"role,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration merges the two-step sign-up form: account first, business
// details second.
type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	CompanyName  string `json:"companyName"`
	BusinessType string `json:"businessType"`
	Address      string `json:"address"`
}

// AuthReply is what vendor and staff logins return.
type AuthReply struct {
	Token  string         `json:"token"`
	Role   string         `json:"role"`
	Vendor *VendorProfile `json:"vendor,omitempty"`
	Staff  *Staff         `json:"staff,omitempty"`
}
