package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	fh *handler.FeedbackHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	appts := api.Group("/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.Get)
	a.Patch("/reschedule", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.Reschedule)
	a.Patch("/cancel", requirePerm(authorize.ResourceAppointment, authorize.ActionDelete), ah.Cancel)
	a.Patch("/complete", requirePerm(authorize.ResourceAppointment, authorize.ActionClose), ah.Complete)
	a.Post("/feedback", requirePerm(authorize.ResourceFeedback, authorize.ActionCreate), fh.SubmitAppointment)
}
