package certificationValidator

import (
	"strings"
	"time"

	"certtrack/middleware"
	"certtrack/models"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

var validStatuses = map[string]bool{
	models.CertActive:  true,
	models.CertExpired: true,
	models.CertRevoked: true,
	models.CertPending: true,
}

func isValidDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// Create validates the admin direct-creation form.
func Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)

		if strings.TrimSpace(c.FormValue("name")) == "" {
			errors["name"] = "Name is required!"
		}
		if strings.TrimSpace(c.FormValue("issuer")) == "" {
			errors["issuer"] = "Issuer is required!"
		}

		issueDate := c.FormValue("issue_date")
		if issueDate == "" {
			errors["issue_date"] = "Issue date is required!"
		} else if !isValidDate(issueDate) {
			errors["issue_date"] = "Issue date must be YYYY-MM-DD!"
		}

		if exp := c.FormValue("expiration_date"); exp != "" && !isValidDate(exp) {
			errors["expiration_date"] = "Expiration date must be YYYY-MM-DD!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}

// Update validates the partial-update form; every field is optional but must
// be well-formed when present.
func Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)

		if date := c.FormValue("issue_date"); date != "" && !isValidDate(date) {
			errors["issue_date"] = "Issue date must be YYYY-MM-DD!"
		}
		if exp := c.FormValue("expiration_date"); exp != "" && !isValidDate(exp) {
			errors["expiration_date"] = "Expiration date must be YYYY-MM-DD!"
		}
		if status := c.FormValue("status"); status != "" && !validStatuses[status] {
			errors["status"] = "Status must be one of active, expired, revoked, pending!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		return c.Next()
	}
}
