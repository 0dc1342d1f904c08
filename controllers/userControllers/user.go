package userController

import (
	"certtrack/database"
	"certtrack/middleware"
	"certtrack/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserList returns all accounts, newest first. Admin only.
func UserList(c *fiber.Ctx) error {
	var users []models.User
	if err := database.Database.Db.Order("created_at desc").Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	for i := range users {
		users[i].Password = ""
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully.", fiber.Map{
		"users": users,
		"total": len(users),
	})
}

// GetUser returns a single account. Admin only.
func GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user ID!", nil)
	}

	var user models.User
	if err := database.Database.Db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Database error!", nil)
	}

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully.", user)
}

// UserCertifications lists a user's certifications. Admins may view anyone;
// everyone else only themselves.
func UserCertifications(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user ID!", nil)
	}

	if !middleware.CallerIsAdmin(c) && callerID != uint(id) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}

	var certifications []models.Certification
	if err := database.Database.Db.
		Where("user_id = ?", id).
		Order("expiration_date IS NULL, expiration_date asc").
		Order("created_at desc").
		Find(&certifications).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certifications!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certifications fetched successfully.", fiber.Map{
		"certifications": certifications,
		"total":          len(certifications),
	})
}
