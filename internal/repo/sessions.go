package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const tableSessions = "user_sessions"

func (c *Client) CreateSession(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.ID == uuid.Nil {
		s.ID = newID()
	}
	s.CreatedAt, s.LastSeenAt = now, now

	if _, err := exec(ctx, c.q.Insert(tableSessions).Rows(*s).Executor()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	if err := getOne(ctx, c.q.From(tableSessions).Where(goqu.Ex{"id": id}), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListActiveSessions(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	var out []Session
	err := c.q.From(tableSessions).
		Where(
			goqu.Ex{"user_id": userID},
			goqu.C("revoked_at").IsNull(),
			goqu.C("expires_at").Gt(time.Now().UTC()),
		).
		Order(goqu.C("last_seen_at").Desc()).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// ReplaceDeviceSession revokes the user's live sessions on s.DeviceID and
// inserts s in the same transaction. It returns the revoked IDs.
func (c *Client) ReplaceDeviceSession(ctx context.Context, s *Session) ([]uuid.UUID, error) {
	var revoked []uuid.UUID
	err := c.WithTx(ctx, func(tx *Client) error {
		ids, err := tx.RevokeDeviceSessions(ctx, s.UserID, s.DeviceID)
		if err != nil {
			return err
		}
		if err := tx.CreateSession(ctx, s); err != nil {
			return err
		}
		revoked = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

func (c *Client) TouchSession(ctx context.Context, id uuid.UUID) error {
	_, err := exec(ctx, c.q.Update(tableSessions).
		Set(goqu.Record{"last_seen_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": id}).Executor())
	return err
}

// revoke marks matching live sessions revoked and returns their IDs.
func (c *Client) revoke(ctx context.Context, where ...goqu.Expression) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	where = append(where, goqu.C("revoked_at").IsNull())
	err := c.q.Update(tableSessions).
		Set(goqu.Record{"revoked_at": time.Now().UTC()}).
		Where(where...).
		Returning("id").
		Executor().
		ScanValsContext(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("revoke sessions: %w", translate(err))
	}
	return ids, nil
}

// RevokeDeviceSessions revokes the user's live sessions on a device.
func (c *Client) RevokeDeviceSessions(ctx context.Context, userID uuid.UUID, deviceID string) ([]uuid.UUID, error) {
	return c.revoke(ctx, goqu.Ex{"user_id": userID, "device_id": deviceID})
}

// RevokeSession revokes one session of the user. ErrNotFound if it is not
// a live session owned by userID.
func (c *Client) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	ids, err := c.revoke(ctx, goqu.Ex{"id": sessionID, "user_id": userID})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) RevokeAllSessions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return c.revoke(ctx, goqu.Ex{"user_id": userID})
}
