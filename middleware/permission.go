package middleware

import (
	"certtrack/database"
	"certtrack/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CallerID returns the authenticated user's ID set by JWTMiddleware.
func CallerID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userId").(uint)
	return userID, ok
}

// CallerIsAdmin reports whether the authenticated caller has the admin role.
func CallerIsAdmin(c *fiber.Ctx) bool {
	role, ok := c.Locals("role").(string)
	return ok && role == models.RoleAdmin
}

// RequireAdmin rejects any caller whose role is not admin. Runs after
// JWTMiddleware.
func RequireAdmin(c *fiber.Ctx) error {
	if _, ok := CallerID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Unauthorized: User ID not found",
			"data":    nil,
		})
	}

	if !CallerIsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  false,
			"message": "Admin access required!",
			"data":    nil,
		})
	}

	return c.Next()
}

// RequireCertificationOwnerOrAdmin loads the certification named by the :id
// route param and allows the request through only for its owner or an admin.
// Missing rows 404 before any ownership comparison. The loaded row is stored
// in Locals under "certification" so handlers skip a second fetch.
func RequireCertificationOwnerOrAdmin(c *fiber.Ctx) error {
	userID, ok := CallerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Unauthorized: User ID not found",
			"data":    nil,
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certification ID!", nil)
	}

	var cert models.Certification
	if err := database.Database.Db.First(&cert, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return JsonResponse(c, fiber.StatusNotFound, false, "Certification not found!", nil)
		}
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Database error!", nil)
	}

	if !CallerIsAdmin(c) && cert.UserID != userID {
		return JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}

	c.Locals("certification", &cert)
	return c.Next()
}
