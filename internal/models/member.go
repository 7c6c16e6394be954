package models

import "time"

// MembershipStatus enumerates the lifecycle states of an application record.
type MembershipStatus string

const (
	// StatusRegistered is the initial state before payment proof exists.
	StatusRegistered MembershipStatus = "registered"
	// StatusPendingApproval means payment proof is attached and an
	// administrator decision is outstanding.
	StatusPendingApproval MembershipStatus = "pending_approval"
	// StatusApproved is the terminal-success state.
	StatusApproved MembershipStatus = "approved"
	// StatusRejected is terminal for applicants but re-enterable through
	// administrator action.
	StatusRejected MembershipStatus = "rejected"
)

// Valid reports whether the status is one of the enumerated values.
func (s MembershipStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusPendingApproval, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// BloodGroupNil is the "none/unknown" sentinel accepted alongside the
// standard groups.
const BloodGroupNil = "Nil"

var bloodGroups = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {},
	"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
	BloodGroupNil: {},
}

// ValidBloodGroup reports whether the value is an accepted blood group.
func ValidBloodGroup(value string) bool {
	_, ok := bloodGroups[value]
	return ok
}

// Member represents one membership application record and its lifecycle.
type Member struct {
	ID          string     `db:"id" json:"id"`
	FullName    string     `db:"full_name" json:"full_name"`
	Nickname    string     `db:"nickname" json:"nickname"`
	FatherName  *string    `db:"father_name" json:"father_name,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       string     `db:"phone" json:"phone"`
	Whatsapp    *string    `db:"whatsapp" json:"whatsapp,omitempty"`
	Age         *int       `db:"age" json:"age,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	BloodGroup  string     `db:"blood_group" json:"blood_group"`
	Address     string     `db:"address" json:"address"`

	PhotoURL        *string `db:"photo_url" json:"photo_url,omitempty"`
	PhotoID         *string `db:"photo_id" json:"-"`
	PaymentProofURL *string `db:"payment_proof_url" json:"payment_proof_url,omitempty"`
	PaymentProofID  *string `db:"payment_proof_id" json:"-"`

	Status       MembershipStatus `db:"status" json:"status"`
	MembershipID *string          `db:"membership_id" json:"membership_id,omitempty"`
	ApprovedAt   *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	ExpiryDate   *time.Time       `db:"expiry_date" json:"expiry_date,omitempty"`

	Version   int       `db:"version" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasProof reports whether both attachments required for approval exist.
func (m *Member) HasProof() bool {
	return m.PhotoID != nil && *m.PhotoID != "" && m.PaymentProofID != nil && *m.PaymentProofID != ""
}

// MemberFilter captures search parameters for listing members.
type MemberFilter struct {
	Statuses []MembershipStatus
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
