package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleShipper    Role = "shipper"
	RoleStorefront Role = "storefront"
	RoleManager    Role = "manager"
)

// ParseRole normalizes raw input and reports whether it names a known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleBuyer, RoleShipper, RoleStorefront, RoleManager:
		return role, true
	default:
		return "", false
	}
}

// SelfRegistrable reports whether the role may be chosen at public registration.
func (r Role) SelfRegistrable() bool {
	return r == RoleBuyer || r == RoleShipper || r == RoleStorefront
}

// RequiresApproval reports whether identities with this role pass the approval gate.
func (r Role) RequiresApproval() bool {
	return r == RoleStorefront
}

// IDPrefix is the two-character tag used for the role's profile ids.
func (r Role) IDPrefix() string {
	switch r {
	case RoleBuyer:
		return "NM"
	case RoleShipper:
		return "SP"
	case RoleStorefront:
		return "GH"
	case RoleManager:
		return "QL"
	default:
		return ""
	}
}

// InitialStatus is the approval status a freshly registered identity starts with.
func (r Role) InitialStatus() ApprovalStatus {
	if r.RequiresApproval() {
		return StatusPending
	}
	return StatusApproved
}

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

func ParseApprovalStatus(raw string) (ApprovalStatus, bool) {
	status := ApprovalStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return status, true
	default:
		return "", false
	}
}

const IdentityIDPrefix = "ND"

type Identity struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	PasswordHash   string         `json:"-"`
	DisplayName    string         `json:"display_name"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Gender         string         `json:"gender,omitempty"`
	BankAccount    string         `json:"bank_account,omitempty"`
	BankName       string         `json:"bank_name,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Summary is the public projection returned by register and login.
func (i Identity) Summary() IdentitySummary {
	return IdentitySummary{
		ID:             i.ID,
		Username:       i.Username,
		DisplayName:    i.DisplayName,
		Role:           i.Role,
		ApprovalStatus: i.ApprovalStatus,
	}
}

func (i Identity) Principal() Principal {
	return Principal{
		ID:             i.ID,
		Username:       i.Username,
		DisplayName:    i.DisplayName,
		Role:           i.Role,
		ApprovalStatus: i.ApprovalStatus,
	}
}

type IdentitySummary struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	DisplayName    string         `json:"display_name"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

// Principal is the request-scoped view of the authenticated caller. It is always
// loaded from the store, never from token claims.
type Principal struct {
	ID             string
	Username       string
	DisplayName    string
	Role           Role
	ApprovalStatus ApprovalStatus
}

// RoleProfile is the role-specific extension of an Identity. Exactly one of the
// variant pointers is set, matching Role.
type RoleProfile struct {
	Role       Role               `json:"role"`
	Buyer      *BuyerProfile      `json:"buyer,omitempty"`
	Shipper    *ShipperProfile    `json:"shipper,omitempty"`
	Storefront *StorefrontProfile `json:"storefront,omitempty"`
	Manager    *ManagerProfile    `json:"manager,omitempty"`
}

// ID returns the id of whichever variant is populated.
func (p RoleProfile) ID() string {
	switch {
	case p.Buyer != nil:
		return p.Buyer.ID
	case p.Shipper != nil:
		return p.Shipper.ID
	case p.Storefront != nil:
		return p.Storefront.ID
	case p.Manager != nil:
		return p.Manager.ID
	default:
		return ""
	}
}

// SetIDs stamps the profile id and owning identity id on the populated variant.
func (p *RoleProfile) SetIDs(profileID string, identityID string) {
	switch {
	case p.Buyer != nil:
		p.Buyer.ID, p.Buyer.IdentityID = profileID, identityID
	case p.Shipper != nil:
		p.Shipper.ID, p.Shipper.IdentityID = profileID, identityID
	case p.Storefront != nil:
		p.Storefront.ID, p.Storefront.IdentityID = profileID, identityID
	case p.Manager != nil:
		p.Manager.ID, p.Manager.IdentityID = profileID, identityID
	}
}

// Matches reports whether exactly the variant selected by role is populated.
func (p RoleProfile) Matches(role Role) bool {
	if p.Role != role {
		return false
	}

	set := 0
	for _, present := range []bool{p.Buyer != nil, p.Shipper != nil, p.Storefront != nil, p.Manager != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return false
	}

	switch role {
	case RoleBuyer:
		return p.Buyer != nil
	case RoleShipper:
		return p.Shipper != nil
	case RoleStorefront:
		return p.Storefront != nil
	case RoleManager:
		return p.Manager != nil
	default:
		return false
	}
}

type BuyerProfile struct {
	ID         string   `json:"id"`
	IdentityID string   `json:"identity_id"`
	Weight     *float64 `json:"weight,omitempty"`
	Height     *float64 `json:"height,omitempty"`
}

type ShipperProfile struct {
	ID           string  `json:"id"`
	IdentityID   string  `json:"identity_id"`
	VehiclePlate string  `json:"vehicle_plate"`
	VehicleType  *string `json:"vehicle_type,omitempty"`
}

type StorefrontProfile struct {
	ID           string    `json:"id"`
	IdentityID   string    `json:"identity_id"`
	Name         string    `json:"name"`
	MarketCode   string    `json:"market_code"`
	Location     string    `json:"location"`
	ManagerCode  *string   `json:"manager_code,omitempty"`
	Rating       *float64  `json:"rating"`
	RegisteredAt time.Time `json:"registered_at"`
}

type ManagerProfile struct {
	ID         string  `json:"id"`
	IdentityID string  `json:"identity_id"`
	MarketCode *string `json:"market_code,omitempty"`
}

type IdentityDetail struct {
	Identity
	Profile *RoleProfile `json:"profile,omitempty"`
}

type IdentityQuery struct {
	Role   Role
	Status ApprovalStatus
	Page   int
	Limit  int
}

type IdentityList struct {
	Identities []Identity `json:"identities"`
}

type IdentityStats struct {
	Total            int          `json:"total"`
	ByRole           map[Role]int `json:"by_role"`
	PendingApprovals int          `json:"pending_approvals"`
}
