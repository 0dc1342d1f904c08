package userRoutes

import (
	userControllers "certtrack/controllers/userControllers"
	"certtrack/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/api/users", middleware.JWTMiddleware)

	userGroup.Get("/", middleware.RequireAdmin, userControllers.UserList)
	userGroup.Get("/:id", middleware.RequireAdmin, userControllers.GetUser)
	userGroup.Get("/:id/certifications", userControllers.UserCertifications)
}
