package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const tableUsers = "users"

type UserFilter struct {
	Role   string
	Status string
	Phone  string
}

func liveUsers(q queryer) *goqu.SelectDataset {
	return q.From(tableUsers).Where(goqu.C("deleted_at").IsNull())
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	if err := getOne(ctx, liveUsers(c.q).Where(goqu.Ex{"id": id}), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	var u User
	if err := getOne(ctx, liveUsers(c.q).Where(goqu.Ex{"phone": phone}), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts the user and, for doctors, hospitals and patients, the
// empty role profile in the same transaction.
func (c *Client) CreateUser(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	if u.ID == uuid.Nil {
		u.ID = newID()
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	u.CreatedAt, u.UpdatedAt = now, now

	return c.WithTx(ctx, func(tx *Client) error {
		if _, err := exec(ctx, tx.q.Insert(tableUsers).Rows(*u).Executor()); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		var profile interface{}
		var table string
		switch u.Role {
		case RoleDoctor:
			table = tableDoctorProfiles
			profile = goqu.Record{"user_id": u.ID, "step": StepSectionA, "verification_status": VerificationIncomplete}
		case RoleHospital:
			table = tableHospitalProfiles
			profile = goqu.Record{"user_id": u.ID, "step": StepSectionA, "verification_status": VerificationIncomplete}
		case RolePatient:
			table = tablePatientProfiles
			profile = goqu.Record{"user_id": u.ID}
		default:
			return nil
		}
		if _, err := exec(ctx, tx.q.Insert(table).Rows(profile).Executor()); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		return nil
	})
}

func (c *Client) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, c.q.Update(tableUsers).
		Set(goqu.Record{"phone_verified": true, "updated_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": id}).Executor())
}

// RecordLoginSuccess clears the failure counter and lock.
func (c *Client) RecordLoginSuccess(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return execOne(ctx, c.q.Update(tableUsers).
		Set(goqu.Record{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login_at":         now,
			"updated_at":            now,
		}).
		Where(goqu.Ex{"id": id}).Executor())
}

// RecordLoginFailure increments the failure counter and locks the account
// for lockFor once it reaches maxAttempts. Both happen in one statement.
func (c *Client) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	lockUntil := time.Now().UTC().Add(lockFor)
	return execOne(ctx, c.q.Update(tableUsers).
		Set(goqu.Record{
			"failed_login_attempts": goqu.L("failed_login_attempts + 1"),
			"locked_until": goqu.Case().
				When(goqu.L("failed_login_attempts + 1 >= ?", maxAttempts), lockUntil).
				Else(goqu.C("locked_until")),
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id}).Executor())
}

func (c *Client) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return execOne(ctx, c.q.Update(tableUsers).
		Set(goqu.Record{"password_hash": hash, "updated_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": id}).Executor())
}

func (c *Client) SetUserStatus(ctx context.Context, id uuid.UUID, status string) error {
	return execOne(ctx, c.q.Update(tableUsers).
		Set(goqu.Record{"status": status, "updated_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": id}, goqu.C("deleted_at").IsNull()).Executor())
}

func (c *Client) ListUsers(ctx context.Context, f UserFilter, limit, offset int) ([]User, int, error) {
	ds := liveUsers(c.q)
	if f.Role != "" {
		ds = ds.Where(goqu.Ex{"role": f.Role})
	}
	if f.Status != "" {
		ds = ds.Where(goqu.Ex{"status": f.Status})
	}
	if f.Phone != "" {
		ds = ds.Where(goqu.C("phone").Like("%" + f.Phone + "%"))
	}

	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []User
	err = ds.Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &users)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, int(total), nil
}

// UserIDsByRole returns active users of a role, used for admin fan-out.
func (c *Client) UserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := liveUsers(c.q).
		Select("id").
		Where(goqu.Ex{"role": role, "status": UserStatusActive}).
		ScanValsContext(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", role, err)
	}
	return ids, nil
}

func (c *Client) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}
	err := liveUsers(c.q).
		Select("role", goqu.COUNT("*").As("count")).
		GroupBy("role").
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Role] = r.Count
	}
	return out, nil
}
