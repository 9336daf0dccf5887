package service_test

import (
	"context"
	"testing"

	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func submitLeave(t *testing.T, f *fixture, userID, leaveType string, days float64) *models.LeaveRequest {
	t.Helper()
	req, err := f.svc.SubmitLeaveRequest(context.Background(), models.CreateLeaveRequest{
		UserID:    userID,
		LeaveType: leaveType,
		StartDate: "2025-03-10",
		EndDate:   "2025-03-11",
		Days:      &days,
	})
	require.NoError(t, err)
	return req
}

func setStatus(t *testing.T, f *fixture, id, status string) *models.LeaveRequest {
	t.Helper()
	req, err := f.svc.UpdateLeaveRequest(context.Background(), id, models.UpdateLeaveRequest{Status: &status})
	require.NoError(t, err)
	return req
}

func balanceOf(t *testing.T, f *fixture, userID string) *models.LeaveBalanceResponse {
	t.Helper()
	b, err := f.svc.GetLeaveBalance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func TestLeaveApproveThenReject(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "alice")

	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 1.5)
	assert.Equal(t, models.LeaveStatusPending, req.Status)
	assert.Equal(t, "alice", req.UserName)

	b := balanceOf(t, f, user.ID)
	assert.Equal(t, 15.0, b.AnnualTotal)
	assert.Equal(t, 0.0, b.AnnualUsed)
	assert.Equal(t, 10.0, b.SickTotal)

	approved := setStatus(t, f, req.ID, models.LeaveStatusApproved)
	require.NotNil(t, approved.ReviewedDate)
	b = balanceOf(t, f, user.ID)
	assert.Equal(t, 1.5, b.AnnualUsed)
	assert.Equal(t, 13.5, b.AnnualRemaining)

	setStatus(t, f, req.ID, models.LeaveStatusRejected)
	b = balanceOf(t, f, user.ID)
	assert.Equal(t, 0.0, b.AnnualUsed)
	assert.Equal(t, 15.0, b.AnnualRemaining)
}

func TestLeaveApprovalCountsOnce(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "bob")
	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 2)

	setStatus(t, f, req.ID, models.LeaveStatusApproved)
	setStatus(t, f, req.ID, models.LeaveStatusApproved)
	_, err := f.svc.UpdateLeaveRequest(context.Background(), req.ID, models.UpdateLeaveRequest{
		Reason: ptr("family trip"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, balanceOf(t, f, user.ID).AnnualUsed)
}

func TestLeaveDaysEditWhileApprovedIsNotReconciled(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "carol")
	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 2)
	setStatus(t, f, req.ID, models.LeaveStatusApproved)

	_, err := f.svc.UpdateLeaveRequest(context.Background(), req.ID, models.UpdateLeaveRequest{Days: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, balanceOf(t, f, user.ID).AnnualUsed)

	// the restore uses the stored days
	setStatus(t, f, req.ID, models.LeaveStatusCancelled)
	assert.Equal(t, 0.0, balanceOf(t, f, user.ID).AnnualUsed)
}

func TestLeaveTypeIsFixedOnceApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "cathy")
	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 2)
	setStatus(t, f, req.ID, models.LeaveStatusApproved)

	_, err := f.svc.UpdateLeaveRequest(ctx, req.ID, models.UpdateLeaveRequest{LeaveType: ptr(models.LeaveTypeSick)})
	assert.ErrorIs(t, err, service.ErrValidation)

	stored, err := f.svc.GetLeaveRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveTypeAnnual, stored.LeaveType)

	setStatus(t, f, req.ID, models.LeaveStatusCancelled)
	b := balanceOf(t, f, user.ID)
	assert.Equal(t, 0.0, b.AnnualUsed)
	assert.Equal(t, 0.0, b.SickUsed)

	// once no longer approved the type may change again
	_, err = f.svc.UpdateLeaveRequest(ctx, req.ID, models.UpdateLeaveRequest{LeaveType: ptr(models.LeaveTypeSick)})
	require.NoError(t, err)
	setStatus(t, f, req.ID, models.LeaveStatusApproved)
	b = balanceOf(t, f, user.ID)
	assert.Equal(t, 0.0, b.AnnualUsed)
	assert.Equal(t, 2.0, b.SickUsed)
}

func TestLeaveRestoreIsFlooredAtZero(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "dave")
	req := submitLeave(t, f, user.ID, models.LeaveTypeSick, 2)
	setStatus(t, f, req.ID, models.LeaveStatusApproved)

	err := f.store.WithLeaveTx(context.Background(), func(tx repository.LeaveTx) error {
		b, err := tx.LockLeaveBalance(user.ID)
		if err != nil {
			return err
		}
		b.SickUsed = 0.5
		return tx.UpdateLeaveBalance(b)
	})
	require.NoError(t, err)

	setStatus(t, f, req.ID, models.LeaveStatusCancelled)
	b := balanceOf(t, f, user.ID)
	assert.Equal(t, 0.0, b.SickUsed)
	assert.Equal(t, 10.0, b.SickRemaining)
}

func TestLeaveMissingBalanceIsSkipped(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "erin")
	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 1)
	f.store.DeleteLeaveBalance(user.ID)

	approved := setStatus(t, f, req.ID, models.LeaveStatusApproved)
	assert.Equal(t, models.LeaveStatusApproved, approved.Status)

	_, err := f.svc.GetLeaveBalance(context.Background(), user.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var warned bool
	for _, e := range f.logs.AllEntries() {
		if e.Message == "no leave balance row, skipping adjustment" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestLeaveUntrackedTypesLeaveBalanceAlone(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "frank")

	for _, leaveType := range []string{models.LeaveTypePersonal, models.LeaveTypeUnpaid} {
		req := submitLeave(t, f, user.ID, leaveType, 2)
		setStatus(t, f, req.ID, models.LeaveStatusApproved)
	}

	b := balanceOf(t, f, user.ID)
	assert.Equal(t, 0.0, b.AnnualUsed)
	assert.Equal(t, 0.0, b.SickUsed)
}

func TestLeaveSickAndAnnualAreSeparate(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "gina")

	annual := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 1)
	sick := submitLeave(t, f, user.ID, models.LeaveTypeSick, 0.5)
	setStatus(t, f, annual.ID, models.LeaveStatusApproved)
	setStatus(t, f, sick.ID, models.LeaveStatusApproved)

	b := balanceOf(t, f, user.ID)
	assert.Equal(t, 1.0, b.AnnualUsed)
	assert.Equal(t, 0.5, b.SickUsed)
	assert.Equal(t, 9.5, b.SickRemaining)
}

func TestLeaveDeleteApprovedRestoresDays(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "hank")
	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 3)
	setStatus(t, f, req.ID, models.LeaveStatusApproved)
	require.Equal(t, 3.0, balanceOf(t, f, user.ID).AnnualUsed)

	require.NoError(t, f.svc.DeleteLeaveRequest(context.Background(), req.ID))
	assert.Equal(t, 0.0, balanceOf(t, f, user.ID).AnnualUsed)

	_, err := f.svc.GetLeaveRequest(context.Background(), req.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteLeaveRequest(context.Background(), req.ID), service.ErrNotFound)
}

func TestLeaveFailedUpdateRollsBack(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "ivy")
	req := submitLeave(t, f, user.ID, models.LeaveTypeAnnual, 1)

	_, err := f.svc.UpdateLeaveRequest(context.Background(), req.ID, models.UpdateLeaveRequest{
		Status: ptr(models.LeaveStatusApproved),
		Days:   ptr(0.3),
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	stored, err := f.svc.GetLeaveRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, stored.Status)
	assert.Equal(t, 0.0, balanceOf(t, f, user.ID).AnnualUsed)
}

func TestSubmitLeaveDerivesDatesAndDays(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, "jack")

	req, err := f.svc.SubmitLeaveRequest(context.Background(), models.CreateLeaveRequest{
		UserID:    user.ID,
		LeaveType: models.LeaveTypeAnnual,
		StartDate: "2025-03-10",
		EndDate:   "2025-03-12",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10", "2025-03-11", "2025-03-12"}, []string(req.Dates))
	assert.Equal(t, 3.0, req.Days)
	assert.Equal(t, models.HalfDayNone, req.HalfDayType)

	half, err := f.svc.SubmitLeaveRequest(context.Background(), models.CreateLeaveRequest{
		UserID:      user.ID,
		LeaveType:   models.LeaveTypeSick,
		StartDate:   "2025-03-14",
		EndDate:     "2025-03-14",
		HalfDayType: models.HalfDayMorning,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, half.Days)
}

func TestSubmitLeaveValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]models.CreateLeaveRequest{
		"unknown type": {UserID: "u1", LeaveType: "holiday", StartDate: "2025-03-10", EndDate: "2025-03-10"},
		"bad date":     {UserID: "u1", LeaveType: "annual", StartDate: "10/03/2025", EndDate: "2025-03-10"},
		"end before":   {UserID: "u1", LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-09"},
		"quarter day":  {UserID: "u1", LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-10", Days: ptr(0.25)},
		"half day span": {UserID: "u1", LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-11",
			HalfDayType: models.HalfDayAfternoon},
		"bad half day": {UserID: "u1", LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-10",
			HalfDayType: "evening"},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SubmitLeaveRequest(context.Background(), in)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}

	_, err := f.svc.GetLeaveBalance(context.Background(), "u1")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListLeaveRequestsFilters(t *testing.T) {
	f := newFixture(t)
	a := f.addUser(t, "kate")
	b := f.addUser(t, "liam")

	first := submitLeave(t, f, a.ID, models.LeaveTypeAnnual, 1)
	f.clock.Advance(1)
	submitLeave(t, f, a.ID, models.LeaveTypeSick, 1)
	f.clock.Advance(1)
	submitLeave(t, f, b.ID, models.LeaveTypeAnnual, 1)
	setStatus(t, f, first.ID, models.LeaveStatusApproved)

	mine, err := f.svc.ListLeaveRequests(context.Background(), models.LeaveRequestFilter{UserID: a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, models.LeaveTypeSick, mine[0].LeaveType, "newest first")

	approved, err := f.svc.ListLeaveRequests(context.Background(), models.LeaveRequestFilter{Status: models.LeaveStatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	_, err = f.svc.ListLeaveRequests(context.Background(), models.LeaveRequestFilter{Status: "done"})
	assert.ErrorIs(t, err, service.ErrValidation)
}
