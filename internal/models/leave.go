package models

import (
	"time"

	"github.com/lib/pq"
)

// Leave types. Only annual and sick leave are counted against a balance.
const (
	LeaveTypeAnnual   = "annual"
	LeaveTypeSick     = "sick"
	LeaveTypePersonal = "personal"
	LeaveTypeUnpaid   = "unpaid"
)

// Leave request statuses
const (
	LeaveStatusPending   = "pending"
	LeaveStatusApproved  = "approved"
	LeaveStatusRejected  = "rejected"
	LeaveStatusCancelled = "cancelled"
)

// Half-day qualifiers
const (
	HalfDayNone      = "none"
	HalfDayMorning   = "morning"
	HalfDayAfternoon = "afternoon"
)

// Defaults for a lazily created balance row
const (
	DefaultAnnualTotal = 15
	DefaultSickTotal   = 10
)

// LeaveRequest is a request for time off covering an explicit list of dates
type LeaveRequest struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	UserName      string         `db:"user_name" json:"user_name"`
	LeaveType     string         `db:"leave_type" json:"leave_type"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	EndDate       time.Time      `db:"end_date" json:"end_date"`
	Days          float64        `db:"days" json:"days"`
	HalfDayType   string         `db:"half_day_type" json:"half_day_type"`
	Reason        string         `db:"reason" json:"reason"`
	Status        string         `db:"status" json:"status"`
	RequestedDate time.Time      `db:"requested_date" json:"requested_date"`
	ReviewedBy    *string        `db:"reviewed_by" json:"reviewed_by"`
	ReviewedDate  *time.Time     `db:"reviewed_date" json:"reviewed_date"`
	Dates         pq.StringArray `db:"dates" json:"dates"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CountsAgainstBalance reports whether the request's leave type is tracked
// by LeaveBalance.
func (r *LeaveRequest) CountsAgainstBalance() bool {
	return r.LeaveType == LeaveTypeAnnual || r.LeaveType == LeaveTypeSick
}

// LeaveBalance is the per-user entitlement and consumption of tracked leave.
// Remaining days are never stored.
type LeaveBalance struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	UserName    string    `db:"user_name" json:"user_name"`
	AnnualTotal float64   `db:"annual_total" json:"annual_total"`
	AnnualUsed  float64   `db:"annual_used" json:"annual_used"`
	SickTotal   float64   `db:"sick_total" json:"sick_total"`
	SickUsed    float64   `db:"sick_used" json:"sick_used"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LeaveRequestFilter narrows ListLeaveRequests
type LeaveRequestFilter struct {
	UserID string
	Status string
}
