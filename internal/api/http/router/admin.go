package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerAdminRoutes(
	api fiber.Router,
	ah *handler.AdminHandler,
	mh *handler.MasterDataHandler,
	fqh *handler.FAQHandler,
	fbh *handler.FeedbackHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	adm := api.Group("/admin", authRequired)

	users := adm.Group("/users")
	users.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionList), ah.ListUsers)
	users.Get("/:id", requirePerm(authorize.ResourceUser, authorize.ActionRead), ah.GetUser)
	users.Patch("/:id/verification", requirePerm(authorize.ResourceUser, authorize.ActionVerify), ah.SetVerification)
	users.Patch("/:id/block", requirePerm(authorize.ResourceUser, authorize.ActionManage), ah.Block)
	users.Patch("/:id/unblock", requirePerm(authorize.ResourceUser, authorize.ActionManage), ah.Unblock)

	md := adm.Group("/masterdata", requirePerm(authorize.ResourceMasterData, authorize.ActionManage))
	md.Put("/items/:id", mh.Update)
	md.Delete("/items/:id", mh.Delete)
	md.Get("/:kind", mh.ListAll)
	md.Post("/:kind", mh.Create)

	faqs := adm.Group("/faqs", requirePerm(authorize.ResourceFAQ, authorize.ActionManage))
	faqs.Post("/", fqh.Create)
	faqs.Put("/:id", fqh.Update)
	faqs.Delete("/:id", fqh.Delete)

	adm.Get("/feedback", requirePerm(authorize.ResourceFeedback, authorize.ActionList), fbh.ListPlatform)
	adm.Post("/search/reindex", requirePerm(authorize.ResourceSystem, authorize.ActionExecute), ah.Reindex)
}
