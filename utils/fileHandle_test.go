package utils

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certtrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid PNG header so content sniffing recognizes the type.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("certificate", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["certificate"][0]
}

func setupUploadDir(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{UploadDir: t.TempDir()}
}

func TestSaveCertificateFileStoresPNG(t *testing.T) {
	setupUploadDir(t)

	reference, err := SaveCertificateFile(uploadHeader(t, "evidence.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reference, "/uploads/certificates/"))
	assert.True(t, strings.HasSuffix(reference, ".png"))

	onDisk := filepath.Join(config.AppConfig.UploadDir, "certificates", filepath.Base(reference))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSaveCertificateFileRejectsDisallowedExtension(t *testing.T) {
	setupUploadDir(t)

	_, err := SaveCertificateFile(uploadHeader(t, "evidence.exe", pngBytes))
	assert.ErrorIs(t, err, ErrFileRejected)
}

func TestSaveCertificateFileRejectsMismatchedContent(t *testing.T) {
	setupUploadDir(t)

	// Extension says PNG, bytes say plain text
	_, err := SaveCertificateFile(uploadHeader(t, "evidence.png", []byte("just some text")))
	assert.ErrorIs(t, err, ErrFileRejected)
}

func TestSaveCertificateFileRejectsOversizedUpload(t *testing.T) {
	setupUploadDir(t)

	// Size is checked before the file is opened, so a synthetic header works
	oversized := &multipart.FileHeader{Filename: "big.pdf", Size: MaxUploadBytes + 1}
	_, err := SaveCertificateFile(oversized)
	assert.ErrorIs(t, err, ErrFileRejected)
}

func TestDeleteStoredFile(t *testing.T) {
	setupUploadDir(t)

	reference, err := SaveCertificateFile(uploadHeader(t, "evidence.png", pngBytes))
	require.NoError(t, err)

	require.NoError(t, DeleteStoredFile(reference))
	onDisk := filepath.Join(config.AppConfig.UploadDir, "certificates", filepath.Base(reference))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice tolerates the missing file
	assert.NoError(t, DeleteStoredFile(reference))
	assert.NoError(t, DeleteStoredFile(""))
}
