package certificationRoutes

import (
	certificationControllers "certtrack/controllers/certification"
	"certtrack/middleware"
	certificationValidators "certtrack/validators/certification"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificationRoutes(app *fiber.App) {
	certGroup := app.Group("/api/certifications", middleware.JWTMiddleware)

	certGroup.Get("/", certificationControllers.ListCertifications)
	certGroup.Get("/expiring/soon", certificationControllers.ExpiringSoon)
	certGroup.Post("/", certificationValidators.Create(), certificationControllers.CreateCertification)
	certGroup.Get("/:id", certificationControllers.GetCertification)
	certGroup.Put("/:id", middleware.RequireCertificationOwnerOrAdmin, certificationValidators.Update(), certificationControllers.UpdateCertification)
	certGroup.Delete("/:id", middleware.RequireCertificationOwnerOrAdmin, certificationControllers.DeleteCertification)
}
