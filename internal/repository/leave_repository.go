package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/planning-tool/planner-server/internal/models"
)

const leaveRequestColumns = `id, user_id, user_name, leave_type, start_date, end_date, days,
	half_day_type, reason, status, requested_date, reviewed_by, reviewed_date, dates,
	created_at, updated_at`

const leaveBalanceColumns = `id, user_id, user_name, annual_total, annual_used, sick_total,
	sick_used, created_at, updated_at`

func (r *PostgresRepository) ListLeaveRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error) {
	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE 1 = 1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY requested_date DESC`

	requests := []models.LeaveRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *PostgresRepository) GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error) {
	var req models.LeaveRequest
	err := r.db.GetContext(ctx, &req, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *PostgresRepository) ListLeaveBalances(ctx context.Context) ([]models.LeaveBalance, error) {
	balances := []models.LeaveBalance{}
	err := r.db.SelectContext(ctx, &balances,
		`SELECT `+leaveBalanceColumns+` FROM leave_balances ORDER BY user_name`)
	if err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *PostgresRepository) GetLeaveBalance(ctx context.Context, userID string) (*models.LeaveBalance, error) {
	var balance models.LeaveBalance
	err := r.db.GetContext(ctx, &balance,
		`SELECT `+leaveBalanceColumns+` FROM leave_balances WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// WithLeaveTx runs fn inside one transaction over the leave tables
func (r *PostgresRepository) WithLeaveTx(ctx context.Context, fn func(tx LeaveTx) error) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&pgLeaveTx{ctx: ctx, tx: tx})
	})
}

type pgLeaveTx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

func (t *pgLeaveTx) CreateLeaveRequest(req *models.LeaveRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	stampCreated(&req.CreatedAt, &req.UpdatedAt)

	_, err := t.tx.NamedExecContext(t.ctx, `
		INSERT INTO leave_requests (`+leaveRequestColumns+`)
		VALUES (:id, :user_id, :user_name, :leave_type, :start_date, :end_date, :days,
			:half_day_type, :reason, :status, :requested_date, :reviewed_by, :reviewed_date,
			:dates, :created_at, :updated_at)
	`, req)
	return err
}

func (t *pgLeaveTx) LockLeaveRequest(id string) (*models.LeaveRequest, error) {
	var req models.LeaveRequest
	err := t.tx.GetContext(t.ctx, &req,
		`SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (t *pgLeaveTx) UpdateLeaveRequest(req *models.LeaveRequest) error {
	stampUpdated(&req.UpdatedAt)

	_, err := t.tx.NamedExecContext(t.ctx, `
		UPDATE leave_requests SET leave_type = :leave_type, start_date = :start_date,
			end_date = :end_date, days = :days, half_day_type = :half_day_type,
			reason = :reason, status = :status, reviewed_by = :reviewed_by,
			reviewed_date = :reviewed_date, dates = :dates, updated_at = :updated_at
		WHERE id = :id
	`, req)
	return err
}

func (t *pgLeaveTx) DeleteLeaveRequest(id string) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	return err
}

func (t *pgLeaveTx) EnsureLeaveBalance(balance *models.LeaveBalance) error {
	if balance.ID == "" {
		balance.ID = uuid.New().String()
	}
	stampCreated(&balance.CreatedAt, &balance.UpdatedAt)

	_, err := t.tx.NamedExecContext(t.ctx, `
		INSERT INTO leave_balances (`+leaveBalanceColumns+`)
		VALUES (:id, :user_id, :user_name, :annual_total, :annual_used, :sick_total,
			:sick_used, :created_at, :updated_at)
		ON CONFLICT (user_id) DO NOTHING
	`, balance)
	return err
}

func (t *pgLeaveTx) LockLeaveBalance(userID string) (*models.LeaveBalance, error) {
	var balance models.LeaveBalance
	err := t.tx.GetContext(t.ctx, &balance,
		`SELECT `+leaveBalanceColumns+` FROM leave_balances WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

func (t *pgLeaveTx) UpdateLeaveBalance(balance *models.LeaveBalance) error {
	stampUpdated(&balance.UpdatedAt)

	_, err := t.tx.NamedExecContext(t.ctx, `
		UPDATE leave_balances SET annual_total = :annual_total, annual_used = :annual_used,
			sick_total = :sick_total, sick_used = :sick_used, updated_at = :updated_at
		WHERE id = :id
	`, balance)
	return err
}
