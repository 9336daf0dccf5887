package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// LeaveService manages leave requests and keeps balances consistent with
// the set of approved requests.
type LeaveService interface {
	ListLeaveRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error)
	SubmitLeaveRequest(ctx context.Context, req models.CreateLeaveRequest) (*models.LeaveRequest, error)
	UpdateLeaveRequest(ctx context.Context, id string, req models.UpdateLeaveRequest) (*models.LeaveRequest, error)
	DeleteLeaveRequest(ctx context.Context, id string) error

	ListLeaveBalances(ctx context.Context) ([]models.LeaveBalanceResponse, error)
	GetLeaveBalance(ctx context.Context, userID string) (*models.LeaveBalanceResponse, error)
}

func (s *DefaultService) ListLeaveRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error) {
	if filter.Status != "" && !validLeaveStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}

	requests, err := s.repo.ListLeaveRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing leave requests: %w", err)
	}
	return requests, nil
}

func (s *DefaultService) GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error) {
	req, err := s.repo.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting leave request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: leave request not found", ErrNotFound)
	}
	return req, nil
}

// SubmitLeaveRequest stores a pending request and creates the user's
// balance row with default totals if it does not exist yet. Balances are
// not touched until approval.
func (s *DefaultService) SubmitLeaveRequest(ctx context.Context, in models.CreateLeaveRequest) (*models.LeaveRequest, error) {
	now := s.clock.Now()
	req := &models.LeaveRequest{
		ID:            uuid.New().String(),
		UserID:        in.UserID,
		UserName:      in.UserName,
		LeaveType:     in.LeaveType,
		HalfDayType:   defaultString(in.HalfDayType, models.HalfDayNone),
		Reason:        in.Reason,
		Status:        models.LeaveStatusPending,
		RequestedDate: now,
		Dates:         pq.StringArray(in.Dates),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var err error
	if req.StartDate, err = parseDate("start_date", in.StartDate); err != nil {
		return nil, err
	}
	if req.EndDate, err = parseDate("end_date", in.EndDate); err != nil {
		return nil, err
	}
	if len(req.Dates) == 0 {
		req.Dates = expandDates(req.StartDate, req.EndDate)
	}
	if in.Days != nil {
		req.Days = *in.Days
	} else {
		req.Days = deriveDays(len(req.Dates), req.HalfDayType)
	}
	if err := validateLeaveRequest(req); err != nil {
		return nil, err
	}

	if req.UserName == "" {
		user, err := s.repo.GetUserByID(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("error getting user: %w", err)
		}
		if user != nil {
			req.UserName = user.Name
		}
	}

	err = s.repo.WithLeaveTx(ctx, func(tx repository.LeaveTx) error {
		if err := tx.CreateLeaveRequest(req); err != nil {
			return fmt.Errorf("error creating leave request: %w", err)
		}
		balance := &models.LeaveBalance{
			ID:          uuid.New().String(),
			UserID:      req.UserID,
			UserName:    req.UserName,
			AnnualTotal: models.DefaultAnnualTotal,
			SickTotal:   models.DefaultSickTotal,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.EnsureLeaveBalance(balance); err != nil {
			return fmt.Errorf("error creating leave balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"leave_request_id": req.ID,
		"user_id":          req.UserID,
		"leave_type":       req.LeaveType,
		"days":             req.Days,
	}).Info("leave request submitted")
	return req, nil
}

// UpdateLeaveRequest applies an edit and, when the status crosses the
// approved boundary, debits or restores the balance in the same
// transaction. Edits to an already approved request are not reconciled.
func (s *DefaultService) UpdateLeaveRequest(ctx context.Context, id string, in models.UpdateLeaveRequest) (*models.LeaveRequest, error) {
	var updated *models.LeaveRequest

	err := s.repo.WithLeaveTx(ctx, func(tx repository.LeaveTx) error {
		current, err := tx.LockLeaveRequest(id)
		if err != nil {
			return fmt.Errorf("error getting leave request: %w", err)
		}
		if current == nil {
			return fmt.Errorf("%w: leave request not found", ErrNotFound)
		}
		before := *current

		next, err := s.applyLeaveUpdate(current, in)
		if err != nil {
			return err
		}
		if err := tx.UpdateLeaveRequest(next); err != nil {
			return fmt.Errorf("error updating leave request: %w", err)
		}

		wasApproved := before.Status == models.LeaveStatusApproved
		isApproved := next.Status == models.LeaveStatusApproved
		switch {
		case !wasApproved && isApproved:
			err = s.adjustBalance(tx, next, next.Days)
		case wasApproved && !isApproved:
			err = s.adjustBalance(tx, &before, -before.Days)
		}
		if err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLeaveRequest restores the days of an approved request before
// removing it.
func (s *DefaultService) DeleteLeaveRequest(ctx context.Context, id string) error {
	return s.repo.WithLeaveTx(ctx, func(tx repository.LeaveTx) error {
		current, err := tx.LockLeaveRequest(id)
		if err != nil {
			return fmt.Errorf("error getting leave request: %w", err)
		}
		if current == nil {
			return fmt.Errorf("%w: leave request not found", ErrNotFound)
		}

		if current.Status == models.LeaveStatusApproved {
			if err := s.adjustBalance(tx, current, -current.Days); err != nil {
				return err
			}
		}

		if err := tx.DeleteLeaveRequest(id); err != nil {
			return fmt.Errorf("error deleting leave request: %w", err)
		}
		return nil
	})
}

func (s *DefaultService) ListLeaveBalances(ctx context.Context) ([]models.LeaveBalanceResponse, error) {
	balances, err := s.repo.ListLeaveBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing leave balances: %w", err)
	}

	out := make([]models.LeaveBalanceResponse, 0, len(balances))
	for i := range balances {
		out = append(out, models.NewLeaveBalanceResponse(&balances[i]))
	}
	return out, nil
}

func (s *DefaultService) GetLeaveBalance(ctx context.Context, userID string) (*models.LeaveBalanceResponse, error) {
	balance, err := s.repo.GetLeaveBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting leave balance: %w", err)
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: leave balance not found", ErrNotFound)
	}

	resp := models.NewLeaveBalanceResponse(balance)
	return &resp, nil
}

// adjustBalance adds delta days to the used counter matching the request's
// leave type. Restores are floored at zero. A missing balance row is
// skipped so it never blocks an approval.
func (s *DefaultService) adjustBalance(tx repository.LeaveTx, req *models.LeaveRequest, delta float64) error {
	if !req.CountsAgainstBalance() {
		return nil
	}

	balance, err := tx.LockLeaveBalance(req.UserID)
	if err != nil {
		return fmt.Errorf("error getting leave balance: %w", err)
	}
	if balance == nil {
		s.logger.WithFields(logrus.Fields{
			"leave_request_id": req.ID,
			"user_id":          req.UserID,
		}).Warn("no leave balance row, skipping adjustment")
		return nil
	}

	used := &balance.AnnualUsed
	if req.LeaveType == models.LeaveTypeSick {
		used = &balance.SickUsed
	}
	*used = roundDays(math.Max(0, *used+delta))
	balance.UpdatedAt = s.clock.Now()

	if err := tx.UpdateLeaveBalance(balance); err != nil {
		return fmt.Errorf("error updating leave balance: %w", err)
	}
	return nil
}

// applyLeaveUpdate returns a copy of current with the edit applied and validated
func (s *DefaultService) applyLeaveUpdate(current *models.LeaveRequest, in models.UpdateLeaveRequest) (*models.LeaveRequest, error) {
	next := *current
	var err error

	// the debit already sits on the old type's counter
	if in.LeaveType != nil && *in.LeaveType != current.LeaveType && current.Status == models.LeaveStatusApproved {
		return nil, fmt.Errorf("%w: leave_type cannot change on an approved request", ErrValidation)
	}
	setString(&next.LeaveType, in.LeaveType)
	setString(&next.HalfDayType, in.HalfDayType)
	setString(&next.Reason, in.Reason)
	if next.HalfDayType == "" {
		next.HalfDayType = models.HalfDayNone
	}
	if in.StartDate != nil {
		if next.StartDate, err = parseDate("start_date", *in.StartDate); err != nil {
			return nil, err
		}
	}
	if in.EndDate != nil {
		if next.EndDate, err = parseDate("end_date", *in.EndDate); err != nil {
			return nil, err
		}
	}
	if in.Dates != nil {
		next.Dates = pq.StringArray(*in.Dates)
		if len(next.Dates) == 0 {
			next.Dates = expandDates(next.StartDate, next.EndDate)
		}
		if in.Days == nil {
			next.Days = deriveDays(len(next.Dates), next.HalfDayType)
		}
	}
	if in.Days != nil {
		next.Days = *in.Days
	}

	if in.Status != nil && *in.Status != current.Status {
		if !validLeaveStatus(*in.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		next.Status = *in.Status
		if next.Status != models.LeaveStatusPending {
			now := s.clock.Now()
			next.ReviewedDate = &now
		}
	}
	if in.ReviewedBy != nil {
		next.ReviewedBy = in.ReviewedBy
	}
	next.UpdatedAt = s.clock.Now()

	if err := validateLeaveRequest(&next); err != nil {
		return nil, err
	}
	return &next, nil
}

func validateLeaveRequest(req *models.LeaveRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	switch req.LeaveType {
	case models.LeaveTypeAnnual, models.LeaveTypeSick, models.LeaveTypePersonal, models.LeaveTypeUnpaid:
	default:
		return fmt.Errorf("%w: leave_type must be one of annual, sick, personal, unpaid", ErrValidation)
	}
	switch req.HalfDayType {
	case models.HalfDayNone, models.HalfDayMorning, models.HalfDayAfternoon:
	default:
		return fmt.Errorf("%w: half_day_type must be one of none, morning, afternoon", ErrValidation)
	}
	if !validLeaveStatus(req.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	for _, d := range req.Dates {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, d)
		}
	}
	if req.HalfDayType != models.HalfDayNone && len(req.Dates) != 1 {
		return fmt.Errorf("%w: a half-day request covers exactly one date", ErrValidation)
	}
	if req.Days <= 0 || math.Mod(req.Days*2, 1) != 0 {
		return fmt.Errorf("%w: days must be a positive multiple of 0.5", ErrValidation)
	}
	return nil
}

func validLeaveStatus(status string) bool {
	switch status {
	case models.LeaveStatusPending, models.LeaveStatusApproved,
		models.LeaveStatusRejected, models.LeaveStatusCancelled:
		return true
	}
	return false
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, field)
	}
	return t, nil
}

// expandDates lists every calendar day from start to end inclusive
func expandDates(start, end time.Time) pq.StringArray {
	dates := pq.StringArray{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates
}

func deriveDays(count int, halfDay string) float64 {
	if halfDay != "" && halfDay != models.HalfDayNone {
		return 0.5 * float64(count)
	}
	return float64(count)
}

// roundDays keeps counters on the NUMERIC(6,2) grid
func roundDays(v float64) float64 {
	return math.Round(v*100) / 100
}
