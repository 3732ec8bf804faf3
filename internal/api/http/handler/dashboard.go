package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/dashboard"
)

type DashboardHandler struct {
	svc dashboard.Service
}

func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GET /api/v1/dashboard
func (h *DashboardHandler) Get(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	var (
		out any
		err error
	)
	switch claims.Role {
	case repo.RoleAdmin:
		out, err = h.svc.Admin(c.Context())
	case repo.RoleDoctor:
		out, err = h.svc.Doctor(c.Context(), claims.UserID)
	case repo.RoleHospital:
		out, err = h.svc.Hospital(c.Context(), claims.UserID)
	default:
		return forbidden(c, "")
	}
	if err != nil {
		return internalError(c, err)
	}

	return ok(c, out)
}
