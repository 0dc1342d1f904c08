package certificationController

import (
	"errors"
	"log"

	"certtrack/database"
	"certtrack/middleware"
	"certtrack/models"
	"certtrack/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// CertificationWithUser decorates a certification with its owner's identity
// for admin listings.
type CertificationWithUser struct {
	models.Certification
	Username string `json:"username"`
	Email    string `json:"email"`
}

// nulls sort first in SQLite, so push them last explicitly
const expirationOrder = "expiration_date IS NULL, expiration_date asc"

// ListCertifications returns all certifications for admins (with owner
// identity) and only the caller's own otherwise. Soonest expiration first.
func ListCertifications(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	if !middleware.CallerIsAdmin(c) {
		var certifications []models.Certification
		if err := db.Where("user_id = ?", userID).
			Order(expirationOrder).
			Order("created_at desc").
			Find(&certifications).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certifications!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Certifications fetched successfully.", fiber.Map{
			"certifications": certifications,
			"total":          len(certifications),
		})
	}

	var certifications []models.Certification
	if err := db.Order(expirationOrder).
		Order("created_at desc").
		Find(&certifications).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certifications!", nil)
	}

	result := make([]CertificationWithUser, len(certifications))
	for i, cert := range certifications {
		var owner models.User
		db.First(&owner, cert.UserID)
		result[i] = CertificationWithUser{
			Certification: cert,
			Username:      owner.Username,
			Email:         owner.Email,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certifications fetched successfully.", fiber.Map{
		"certifications": result,
		"total":          len(result),
	})
}

// GetCertification fetches one certification. Non-admin callers only see
// their own rows; anyone else's certification reads as not found.
func GetCertification(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certification ID!", nil)
	}

	db := database.Database.Db
	query := db.Where("id = ?", id)
	if !middleware.CallerIsAdmin(c) {
		query = query.Where("user_id = ?", userID)
	}

	var cert models.Certification
	if err := query.First(&cert).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certification not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Database error!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification fetched successfully.", cert)
}

// CreateCertification creates a certification directly, bypassing the
// request queue. Admin only; users are pointed at the request flow instead.
func CreateCertification(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	if !middleware.CallerIsAdmin(c) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Users must submit certification requests. Please use the requests endpoint.", nil)
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

	cert := models.Certification{
		UserID:          userID,
		Name:            c.FormValue("name"),
		Issuer:          c.FormValue("issuer"),
		IssueDate:       c.FormValue("issue_date"),
		ExpirationDate:  expiration,
		CertificateFile: certificateFile,
		Notes:           c.FormValue("notes"),
		Status:          models.CertActive,
	}

	if err := database.Database.Db.Create(&cert).Error; err != nil {
		// Don't leave the blob behind if the row never landed
		if certificateFile != "" {
			if delErr := utils.DeleteStoredFile(certificateFile); delErr != nil {
				log.Printf("Error releasing orphaned file %s: %v", certificateFile, delErr)
			}
		}
		log.Printf("Error creating certification: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create certification!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certification created successfully.", cert)
}

// UpdateCertification merges supplied fields into an existing certification.
// Absent fields keep their prior values. A new evidence upload replaces the
// stored file; the old file is released only after the row update sticks.
func UpdateCertification(c *fiber.Ctx) error {
	cert, ok := c.Locals("certification").(*models.Certification)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Certification not loaded!", nil)
	}

	oldFile := cert.CertificateFile
	newFile := ""
	if file, err := c.FormFile("certificate"); err == nil {
		reference, err := utils.SaveCertificateFile(file)
		if err != nil {
			if errors.Is(err, utils.ErrFileRejected) {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
			}
			log.Printf("Error storing certificate file: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store certificate file!", nil)
		}
		newFile = reference
	}

	if name := c.FormValue("name"); name != "" {
		cert.Name = name
	}
	if issuer := c.FormValue("issuer"); issuer != "" {
		cert.Issuer = issuer
	}
	if issueDate := c.FormValue("issue_date"); issueDate != "" {
		cert.IssueDate = issueDate
	}
	if exp := c.FormValue("expiration_date"); exp != "" {
		cert.ExpirationDate = &exp
	}
	if notes := c.FormValue("notes"); notes != "" {
		cert.Notes = notes
	}
	if status := c.FormValue("status"); status != "" {
		cert.Status = status
	}
	if newFile != "" {
		cert.CertificateFile = newFile
	}

	if err := database.Database.Db.Save(cert).Error; err != nil {
		if newFile != "" {
			if delErr := utils.DeleteStoredFile(newFile); delErr != nil {
				log.Printf("Error releasing orphaned file %s: %v", newFile, delErr)
			}
		}
		log.Printf("Error updating certification: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certification!", nil)
	}

	if newFile != "" && oldFile != "" {
		if err := utils.DeleteStoredFile(oldFile); err != nil {
			log.Printf("Error releasing replaced file %s: %v", oldFile, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification updated successfully.", cert)
}

// DeleteCertification removes a certification, then releases its evidence
// file. Row first: an orphaned file beats a dangling reference.
func DeleteCertification(c *fiber.Ctx) error {
	cert, ok := c.Locals("certification").(*models.Certification)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Certification not loaded!", nil)
	}

	if err := database.Database.Db.Delete(cert).Error; err != nil {
		log.Printf("Error deleting certification: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete certification!", nil)
	}

	if cert.CertificateFile != "" {
		if err := utils.DeleteStoredFile(cert.CertificateFile); err != nil {
			log.Printf("Error releasing file %s: %v", cert.CertificateFile, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification deleted successfully.", nil)
}

// ExpiringSoon returns active certifications expiring within the next 30
// days, soonest first. The window is computed against the current date on
// every call, never cached.
func ExpiringSoon(c *fiber.Ctx) error {
	userID, ok := middleware.CallerID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	today := now.BeginningOfDay()
	from := today.Format("2006-01-02")
	to := today.AddDate(0, 0, 30).Format("2006-01-02")

	db := database.Database.Db
	query := db.Where("status = ? AND expiration_date IS NOT NULL AND expiration_date BETWEEN ? AND ?",
		models.CertActive, from, to)
	if !middleware.CallerIsAdmin(c) {
		query = query.Where("user_id = ?", userID)
	}

	var certifications []models.Certification
	if err := query.Order("expiration_date asc").Find(&certifications).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certifications!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Expiring certifications fetched successfully.", fiber.Map{
		"certifications": certifications,
		"total":          len(certifications),
	})
}
