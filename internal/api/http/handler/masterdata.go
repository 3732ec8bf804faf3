package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/masterdata"
)

type MasterDataHandler struct {
	svc masterdata.Service
}

func NewMasterDataHandler(svc masterdata.Service) *MasterDataHandler {
	return &MasterDataHandler{svc: svc}
}

type masterItemBody struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Code      *string `json:"code" validate:"omitempty,max=32"`
	ParentID  string  `json:"parent_id" validate:"omitempty,uuid"`
	SortOrder int     `json:"sort_order"`
	IsActive  *bool   `json:"is_active"`
}

func (b masterItemBody) input() (masterdata.Input, error) {
	parentID, err := optionalID(b.ParentID)
	if err != nil {
		return masterdata.Input{}, err
	}
	return masterdata.Input{
		Name:      b.Name,
		Code:      b.Code,
		ParentID:  parentID,
		SortOrder: b.SortOrder,
		IsActive:  b.IsActive,
	}, nil
}

// GET /api/v1/masterdata/:kind[?parent_id=]
func (h *MasterDataHandler) List(c fiber.Ctx) error {
	parentID, err := optionalID(c.Query("parent_id"))
	if err != nil {
		return badRequest(c, "invalid parent_id")
	}

	items, err := h.svc.List(c.Context(), c.Params("kind"), parentID)
	if err != nil {
		return mapMasterDataError(c, err)
	}

	return ok(c, items)
}

// GET /api/v1/admin/masterdata/:kind
func (h *MasterDataHandler) ListAll(c fiber.Ctx) error {
	items, err := h.svc.ListAll(c.Context(), c.Params("kind"))
	if err != nil {
		return mapMasterDataError(c, err)
	}
	return ok(c, items)
}

// POST /api/v1/admin/masterdata/:kind
func (h *MasterDataHandler) Create(c fiber.Ctx) error {
	var body masterItemBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	in, err := body.input()
	if err != nil {
		return badRequest(c, "invalid parent_id")
	}

	item, err := h.svc.Create(c.Context(), c.Params("kind"), in)
	if err != nil {
		return mapMasterDataError(c, err)
	}

	return created(c, item)
}

// PUT /api/v1/admin/masterdata/items/:id
func (h *MasterDataHandler) Update(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	var body masterItemBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	in, err := body.input()
	if err != nil {
		return badRequest(c, "invalid parent_id")
	}

	item, err := h.svc.Update(c.Context(), id, in)
	if err != nil {
		return mapMasterDataError(c, err)
	}

	return ok(c, item)
}

// DELETE /api/v1/admin/masterdata/items/:id
func (h *MasterDataHandler) Delete(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	if err := h.svc.Delete(c.Context(), id); err != nil {
		return mapMasterDataError(c, err)
	}

	return noContent(c)
}

func mapMasterDataError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, masterdata.ErrUnknownKind),
		errors.Is(err, masterdata.ErrInvalidInput),
		errors.Is(err, masterdata.ErrInvalidParent):
		return badRequest(c, err.Error())
	case errors.Is(err, masterdata.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, masterdata.ErrDuplicateCode):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}
