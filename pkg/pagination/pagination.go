// Package pagination parses page/limit query parameters and shapes list responses.
package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// New clamps page to >= 1 and limit to 1..MaxLimit, defaulting to DefaultLimit.
func New(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// FromFiber reads ?page= and ?limit=.
func FromFiber(c fiber.Ctx) Params {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return New(page, limit)
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Response wraps a paginated API response.
type Response[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// NewResponse never returns a nil Data slice so clients always see [].
func NewResponse[T any](data []T, total int, p Params) Response[T] {
	if data == nil {
		data = []T{}
	}
	return Response[T]{
		Data:    data,
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		HasMore: p.Offset()+len(data) < total,
	}
}
