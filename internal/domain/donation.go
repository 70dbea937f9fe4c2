package domain

import "time"

// DonationType enumerates the kinds of contribution a donor can submit.
type DonationType string

const (
	DonationCash   DonationType = "Cash"
	DonationGoods  DonationType = "Goods"
	DonationFood   DonationType = "Food"
	DonationOthers DonationType = "Others"
)

// DonationStatus is the approval state reported by the donation server.
type DonationStatus string

const (
	StatusPending  DonationStatus = "PENDING"
	StatusApproved DonationStatus = "APPROVED"
)

// Donation is a read-only snapshot of one donation submission.
type Donation struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	DonationType DonationType
	Amount       float64
	Message      string
	Status       DonationStatus
	CreatedAt    time.Time
	ApprovedAt   *time.Time
}

// EffectiveTime is the approval time when known, otherwise the creation time.
func (d Donation) EffectiveTime() time.Time {
	if d.ApprovedAt != nil && !d.ApprovedAt.IsZero() {
		return *d.ApprovedAt
	}
	return d.CreatedAt
}

// ActionResult reports the outcome of a state-changing request to the donation server.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
