package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	tableMasterItems = "master_items"
	tableFAQs        = "faqs"
)

func (c *Client) CreateMasterItem(ctx context.Context, m *MasterItem) error {
	now := time.Now().UTC()
	if m.ID == uuid.Nil {
		m.ID = newID()
	}
	m.IsActive = true
	m.CreatedAt, m.UpdatedAt = now, now

	if _, err := exec(ctx, c.q.Insert(tableMasterItems).Rows(*m).Executor()); err != nil {
		return fmt.Errorf("insert master item: %w", err)
	}
	return nil
}

func (c *Client) GetMasterItem(ctx context.Context, id uuid.UUID) (*MasterItem, error) {
	var m MasterItem
	if err := getOne(ctx, c.q.From(tableMasterItems).Where(goqu.Ex{"id": id}), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) UpdateMasterItem(ctx context.Context, m *MasterItem) error {
	m.UpdatedAt = time.Now().UTC()
	return execOne(ctx, c.q.Update(tableMasterItems).
		Set(goqu.Record{
			"name":       m.Name,
			"code":       m.Code,
			"parent_id":  m.ParentID,
			"sort_order": m.SortOrder,
			"is_active":  m.IsActive,
			"updated_at": m.UpdatedAt,
		}).
		Where(goqu.Ex{"id": m.ID}).
		Executor())
}

func (c *Client) DeactivateMasterItem(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, c.q.Update(tableMasterItems).
		Set(goqu.Record{"is_active": false, "updated_at": time.Now().UTC()}).
		Where(goqu.Ex{"id": id}).
		Executor())
}

func (c *Client) ListMasterItems(ctx context.Context, kind string, parentID *uuid.UUID, activeOnly bool) ([]MasterItem, error) {
	ds := c.q.From(tableMasterItems).Where(goqu.Ex{"kind": kind})
	if parentID != nil {
		ds = ds.Where(goqu.Ex{"parent_id": *parentID})
	}
	if activeOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}

	var out []MasterItem
	err := ds.Order(goqu.C("sort_order").Asc(), goqu.C("name").Asc()).ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// MasterItemsByIDs returns the active items of kind among ids.
func (c *Client) MasterItemsByIDs(ctx context.Context, kind string, ids []uuid.UUID) ([]MasterItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []MasterItem
	err := c.q.From(tableMasterItems).
		Where(goqu.Ex{"kind": kind, "is_active": true}, goqu.C("id").In(ids)).
		ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", kind, err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// FAQs
// ---------------------------------------------------------------------------

func (c *Client) CreateFAQ(ctx context.Context, f *FAQ) error {
	now := time.Now().UTC()
	if f.ID == uuid.Nil {
		f.ID = newID()
	}
	f.IsActive = true
	f.CreatedAt, f.UpdatedAt = now, now

	if _, err := exec(ctx, c.q.Insert(tableFAQs).Rows(*f).Executor()); err != nil {
		return fmt.Errorf("insert faq: %w", err)
	}
	return nil
}

func (c *Client) GetFAQ(ctx context.Context, id uuid.UUID) (*FAQ, error) {
	var f FAQ
	if err := getOne(ctx, c.q.From(tableFAQs).Where(goqu.Ex{"id": id}), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) UpdateFAQ(ctx context.Context, f *FAQ) error {
	f.UpdatedAt = time.Now().UTC()
	return execOne(ctx, c.q.Update(tableFAQs).
		Set(goqu.Record{
			"audience":   f.Audience,
			"question":   f.Question,
			"answer":     f.Answer,
			"sort_order": f.SortOrder,
			"is_active":  f.IsActive,
			"updated_at": f.UpdatedAt,
		}).
		Where(goqu.Ex{"id": f.ID}).
		Executor())
}

func (c *Client) DeleteFAQ(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, c.q.Delete(tableFAQs).Where(goqu.Ex{"id": id}).Executor())
}

// ListFAQs returns active FAQs for any of the audiences, in display order.
func (c *Client) ListFAQs(ctx context.Context, audiences []string) ([]FAQ, error) {
	ds := c.q.From(tableFAQs).Where(goqu.Ex{"is_active": true})
	if len(audiences) > 0 {
		ds = ds.Where(goqu.C("audience").In(audiences))
	}
	var out []FAQ
	err := ds.Order(goqu.C("sort_order").Asc(), goqu.C("created_at").Asc()).ScanStructsContext(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return out, nil
}
