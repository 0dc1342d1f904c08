package requestRoutes

import (
	requestControllers "certtrack/controllers/request"
	"certtrack/middleware"
	requestValidators "certtrack/validators/request"

	"github.com/gofiber/fiber/v2"
)

func SetupRequestRoutes(app *fiber.App) {
	requestGroup := app.Group("/api/requests", middleware.JWTMiddleware)

	requestGroup.Post("/", requestValidators.Submit(), requestControllers.SubmitRequest)
	requestGroup.Get("/", requestControllers.ListRequests)
	requestGroup.Get("/pending", middleware.RequireAdmin, requestControllers.PendingRequests)
	requestGroup.Get("/:id", requestControllers.GetRequest)
	requestGroup.Post("/:id/approve", middleware.RequireAdmin, requestControllers.ApproveRequest)
	requestGroup.Post("/:id/reject", middleware.RequireAdmin, requestValidators.Reject(), requestControllers.RejectRequest)
	requestGroup.Delete("/:id", requestControllers.DeleteRequest)
}
