package requestController

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"certtrack/database"
	"certtrack/middleware"
	"certtrack/models"
	"certtrack/utils"
	"certtrack/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestWithUser decorates a request with submitter (and, for admins,
// approver) identity for listings.
type RequestWithUser struct {
	models.CertificationRequest
	Username           string `json:"username"`
	Email              string `json:"email"`
	ApprovedByUsername string `json:"approved_by_username,omitempty"`
}

// newRequestReference mints the shareable external reference joining a
// request to the certification approved from it. Never reused.
func newRequestReference() string {
	return fmt.Sprintf("REQ-%d-%s", time.Now().UnixMilli(), strings.ToUpper(uuid.NewString()[:8]))
}

func decorate(db *gorm.DB, requests []models.CertificationRequest, withApprover bool) []RequestWithUser {
	result := make([]RequestWithUser, len(requests))
	for i, req := range requests {
		var submitter models.User
		db.First(&submitter, req.UserID)
		result[i] = RequestWithUser{
			CertificationRequest: req,
			Username:             submitter.Username,
			Email:                submitter.Email,
		}
		if withApprover && req.ApprovedBy != nil {
			var approver models.User
			if err := db.First(&approver, *req.ApprovedBy).Error; err == nil {
				result[i].ApprovedByUsername = approver.Username
			}
		}
	}
	return result
}

// SubmitRequest files a new certification request. Evidence is stored before
// the row is written; if the insert fails the stored file is released again.
func SubmitRequest(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certificateFile := ""
	if file, err := c.FormFile("certificate"); err == nil {
		reference, err := utils.SaveCertificateFile(file)
		if err != nil {
			if errors.Is(err, utils.ErrFileRejected) {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
			}
			log.Printf("Error storing certificate file: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store certificate file!", nil)
		}
		certificateFile = reference
	}

	var expiration *string
	if exp := c.FormValue("expiration_date"); exp != "" {
		expiration = &exp
	}

	request := models.CertificationRequest{
		RequestID:       newRequestReference(),
		UserID:          userID,
		Name:            c.FormValue("name"),
		Issuer:          c.FormValue("issuer"),
		IssueDate:       c.FormValue("issue_date"),
		ExpirationDate:  expiration,
		CertificateFile: certificateFile,
		Notes:           c.FormValue("notes"),
		ApprovalStatus:  models.StatusPending,
	}

	if err := database.Database.Db.Create(&request).Error; err != nil {
		if certificateFile != "" {
			if delErr := utils.DeleteStoredFile(certificateFile); delErr != nil {
				log.Printf("Error releasing orphaned file %s: %v", certificateFile, delErr)
			}
		}
		log.Printf("Error creating certification request: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit certification request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certification request submitted successfully. Waiting for admin approval.", request)
}

// ListRequests returns all requests for admins (with submitter and approver
// identity) and only the caller's own otherwise.
func ListRequests(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	isAdmin := middleware.CallerIsAdmin(c)

	query := db.Order("expiration_date IS NULL, expiration_date asc").Order("created_at desc")
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}

	var requests []models.CertificationRequest
	if err := query.Find(&requests).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch requests!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Requests fetched successfully.", fiber.Map{
		"requests": decorate(db, requests, isAdmin),
		"total":    len(requests),
	})
}

// PendingRequests returns the approval queue, oldest first. Admin only.
func PendingRequests(c *fiber.Ctx) error {
	db := database.Database.Db

	var requests []models.CertificationRequest
	if err := db.Where("approval_status = ?", models.StatusPending).
		Order("created_at asc").
		Find(&requests).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch requests!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending requests fetched successfully.", fiber.Map{
		"requests": decorate(db, requests, false),
		"total":    len(requests),
	})
}

// GetRequest fetches one request. Non-admin callers only see their own.
func GetRequest(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request ID!", nil)
	}

	db := database.Database.Db
	isAdmin := middleware.CallerIsAdmin(c)

	query := db.Where("id = ?", id)
	if !isAdmin {
		query = query.Where("user_id = ?", userID)
	}

	var request models.CertificationRequest
	if err := query.First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Request not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Database error!", nil)
	}

	decorated := decorate(db, []models.CertificationRequest{request}, isAdmin)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Request fetched successfully.", decorated[0])
}

// ApproveRequest drives a pending request through the workflow engine.
// Admin only (enforced by routing middleware).
func ApproveRequest(c *fiber.Ctx) error {
	approverID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request ID!", nil)
	}

	engine := workflow.NewEngine(database.Database.Db)
	request, certification, err := engine.Approve(uint(id), approverID)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Request approved and certification created successfully.", fiber.Map{
		"request":       request,
		"certification": certification,
	})
}

// RejectRequest marks a pending request rejected. Admin only (enforced by
// routing middleware).
func RejectRequest(c *fiber.Ctx) error {
	approverID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request ID!", nil)
	}

	reason, _ := c.Locals("rejectionReason").(string)

	engine := workflow.NewEngine(database.Database.Db)
	request, err := engine.Reject(uint(id), approverID, reason)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Request rejected successfully.", request)
}

// DeleteRequest withdraws a request. Owners may delete their own while still
// pending; admins may delete anything. The evidence file is released after
// the row is gone.
func DeleteRequest(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request ID!", nil)
	}

	db := database.Database.Db

	var request models.CertificationRequest
	if err := db.First(&request, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Request not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Database error!", nil)
	}

	isAdmin := middleware.CallerIsAdmin(c)
	if !isAdmin && request.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}
	if !isAdmin && request.ApprovalStatus != models.StatusPending {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Can only delete pending requests!", nil)
	}

	if err := db.Delete(&request).Error; err != nil {
		log.Printf("Error deleting request: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete request!", nil)
	}

	if request.CertificateFile != "" {
		if err := utils.DeleteStoredFile(request.CertificateFile); err != nil {
			log.Printf("Error releasing file %s: %v", request.CertificateFile, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Request deleted successfully.", nil)
}

// workflowErrorResponse maps engine error classes to HTTP statuses.
func workflowErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Request not found!", nil)
	case errors.Is(err, workflow.ErrInvalidState):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Request is not pending!", nil)
	case errors.Is(err, workflow.ErrConflict):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certification already exists for this request!", nil)
	case errors.Is(err, workflow.ErrRollbackFailed):
		log.Printf("FATAL: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Approval failed and could not be rolled back. Contact an administrator.", nil)
	default:
		log.Printf("Workflow error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process request!", nil)
	}
}
