package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const tableNotifications = "notifications"

// CreateNotifications inserts all rows in a single multi-row statement.
func (c *Client) CreateNotifications(ctx context.Context, ns []Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]interface{}, len(ns))
	for i := range ns {
		if ns[i].ID == uuid.Nil {
			ns[i].ID = newID()
		}
		if ns[i].Data == nil {
			ns[i].Data = JSONMap{}
		}
		ns[i].CreatedAt = now
		rows[i] = ns[i]
	}

	if _, err := exec(ctx, c.q.Insert(tableNotifications).Rows(rows...).Executor()); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

func (c *Client) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	ds := c.q.From(tableNotifications).Where(goqu.Ex{"recipient_id": recipientID})
	if unreadOnly {
		ds = ds.Where(goqu.Ex{"is_read": false})
	}

	total, err := ds.CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var out []Notification
	err = ds.Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).Offset(uint(offset)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return out, int(total), nil
}

func (c *Client) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	n, err := c.q.From(tableNotifications).
		Where(goqu.Ex{"recipient_id": recipientID, "is_read": false}).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return int(n), nil
}

// MarkRead only touches the recipient's own notification.
func (c *Client) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	return execOne(ctx, c.q.Update(tableNotifications).
		Set(goqu.Record{"is_read": true}).
		Where(goqu.Ex{"id": id, "recipient_id": recipientID}).
		Executor())
}

func (c *Client) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return exec(ctx, c.q.Update(tableNotifications).
		Set(goqu.Record{"is_read": true}).
		Where(goqu.Ex{"recipient_id": recipientID, "is_read": false}).
		Executor())
}

func (c *Client) DeleteNotification(ctx context.Context, recipientID, id uuid.UUID) error {
	return execOne(ctx, c.q.Delete(tableNotifications).
		Where(goqu.Ex{"id": id, "recipient_id": recipientID}).
		Executor())
}
