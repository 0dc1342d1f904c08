package certificationController_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"certtrack/config"
	"certtrack/database"
	"certtrack/middleware"
	"certtrack/models"
	certificationRoutes "certtrack/routers/certificationRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	tmp := t.TempDir()
	config.AppConfig = &config.Config{
		DBName:        filepath.Join(tmp, "test.db"),
		JWTKey:        "test-secret",
		SaltRound:     4,
		UploadDir:     filepath.Join(tmp, "uploads"),
		AdminUsername: "@admin",
		AdminPassword: "admin123",
	}
	database.ConnectDb()

	app := fiber.New()
	certificationRoutes.SetupCertificationRoutes(app)
	return app
}

func seedUserWithToken(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()

	user := models.User{Username: username, Email: username + "@example.com", Password: "x", Role: role}
	require.NoError(t, database.Database.Db.Create(&user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Username, user.Email, user.Role)
	require.NoError(t, err)
	return &user, token
}

func seedCertification(t *testing.T, userID uint, name string, expiration *string, status string) *models.Certification {
	t.Helper()

	cert := models.Certification{
		UserID:         userID,
		Name:           name,
		Issuer:         "Example Org",
		IssueDate:      "2024-01-01",
		ExpirationDate: expiration,
		Status:         status,
	}
	require.NoError(t, database.Database.Db.Create(&cert).Error)
	return &cert
}

func getJSON(t *testing.T, app *fiber.App, path, token string) (int, json.RawMessage) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env.Data
}

func datePtr(t time.Time) *string {
	s := t.Format("2006-01-02")
	return &s
}

func TestExpiringSoonWindow(t *testing.T) {
	app := setupApp(t)
	user, token := seedUserWithToken(t, "alice", models.RoleUser)

	soon := seedCertification(t, user.ID, "expires in 10 days", datePtr(time.Now().AddDate(0, 0, 10)), models.CertActive)
	seedCertification(t, user.ID, "expires in 60 days", datePtr(time.Now().AddDate(0, 0, 60)), models.CertActive)
	seedCertification(t, user.ID, "already expired", datePtr(time.Now().AddDate(0, 0, -5)), models.CertActive)
	seedCertification(t, user.ID, "revoked but expiring", datePtr(time.Now().AddDate(0, 0, 10)), models.CertRevoked)
	seedCertification(t, user.ID, "no expiration", nil, models.CertActive)

	code, data := getJSON(t, app, "/api/certifications/expiring/soon", token)
	require.Equal(t, http.StatusOK, code)

	var listing struct {
		Certifications []models.Certification `json:"certifications"`
		Total          int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, soon.ID, listing.Certifications[0].ID)
}

func TestListOrdersByExpirationWithNullsLast(t *testing.T) {
	app := setupApp(t)
	user, token := seedUserWithToken(t, "alice", models.RoleUser)

	noExpiry := seedCertification(t, user.ID, "no expiry", nil, models.CertActive)
	far := seedCertification(t, user.ID, "far", datePtr(time.Now().AddDate(1, 0, 0)), models.CertActive)
	near := seedCertification(t, user.ID, "near", datePtr(time.Now().AddDate(0, 0, 7)), models.CertActive)

	code, data := getJSON(t, app, "/api/certifications", token)
	require.Equal(t, http.StatusOK, code)

	var listing struct {
		Certifications []models.Certification `json:"certifications"`
	}
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Len(t, listing.Certifications, 3)
	assert.Equal(t, near.ID, listing.Certifications[0].ID)
	assert.Equal(t, far.ID, listing.Certifications[1].ID)
	assert.Equal(t, noExpiry.ID, listing.Certifications[2].ID)
}

func TestListIsRoleScoped(t *testing.T) {
	app := setupApp(t)
	alice, aliceToken := seedUserWithToken(t, "alice", models.RoleUser)
	bob, _ := seedUserWithToken(t, "bob", models.RoleUser)
	_, adminToken := seedUserWithToken(t, "@root", models.RoleAdmin)

	seedCertification(t, alice.ID, "alice cert", nil, models.CertActive)
	bobCert := seedCertification(t, bob.ID, "bob cert", nil, models.CertActive)

	var listing struct {
		Certifications []models.Certification `json:"certifications"`
		Total          int                    `json:"total"`
	}

	code, data := getJSON(t, app, "/api/certifications", aliceToken)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, alice.ID, listing.Certifications[0].UserID)

	code, data = getJSON(t, app, "/api/certifications", adminToken)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(data, &listing))
	assert.Equal(t, 2, listing.Total)

	// Direct fetch of another user's certification reads as not found
	code, _ = getJSON(t, app, fmt.Sprintf("/api/certifications/%d", bobCert.ID), aliceToken)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	app := setupApp(t)
	user, token := seedUserWithToken(t, "alice", models.RoleUser)

	cert := seedCertification(t, user.ID, "Before", datePtr(time.Now().AddDate(1, 0, 0)), models.CertActive)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "After"))
	require.NoError(t, w.WriteField("status", models.CertRevoked))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/certifications/%d", cert.ID), &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Certification
	require.NoError(t, database.Database.Db.First(&stored, cert.ID).Error)
	assert.Equal(t, "After", stored.Name)
	assert.Equal(t, models.CertRevoked, stored.Status)
	// Untouched fields keep their prior values
	assert.Equal(t, "Example Org", stored.Issuer)
	assert.Equal(t, "2024-01-01", stored.IssueDate)
	require.NotNil(t, stored.ExpirationDate)
}

func TestUpdateAndDeleteRequireOwnerOrAdmin(t *testing.T) {
	app := setupApp(t)
	alice, _ := seedUserWithToken(t, "alice", models.RoleUser)
	_, bobToken := seedUserWithToken(t, "bob", models.RoleUser)
	_, adminToken := seedUserWithToken(t, "@root", models.RoleAdmin)

	cert := seedCertification(t, alice.ID, "alice cert", nil, models.CertActive)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/certifications/%d", cert.ID), nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/certifications/%d", cert.ID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Gone rows 404 before any ownership comparison
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/certifications/%d", cert.ID), nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
