package requestValidator

import (
	"strings"
	"time"

	"certtrack/middleware"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

func isValidDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// Submit validates the multipart submission form. The file part is checked
// separately by the upload handler.
func Submit() fiber.Handler {
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

// Reject validates the optional rejection payload.
func Reject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			RejectionReason string `json:"rejection_reason"`
		})
		// An empty body is fine; the engine supplies a default reason
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}

		c.Locals("rejectionReason", reqData.RejectionReason)
		return c.Next()
	}
}
