package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
)

// Public discovery routes; no authentication.
func (r *Router) registerDirectoryRoutes(api fiber.Router, h *handler.DirectoryHandler, fh *handler.FeedbackHandler) {
	doctors := api.Group("/doctors")
	doctors.Get("/", h.SearchDoctors)
	doctors.Get("/:id", h.GetDoctor)
	doctors.Get("/:id/slots", h.DoctorSlots)
	doctors.Get("/:id/reviews", fh.DoctorReviews)

	hospitals := api.Group("/hospitals")
	hospitals.Get("/", h.ListHospitals)
	hospitals.Get("/:id", h.GetHospital)
}
