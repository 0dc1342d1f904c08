package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certtrack/config"

	"github.com/google/uuid"
)

// MaxUploadBytes caps certificate evidence at 10 MiB.
const MaxUploadBytes = 10 << 20

// ErrFileRejected signals an evidence upload that violates the type or size
// rules. It fires before anything touches the database.
var ErrFileRejected = errors.New("only image files (JPEG, PNG) and PDF files up to 10 MB are allowed")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// SaveCertificateFile validates and stores an uploaded certificate file under
// the configured upload directory and returns its web reference
// (/uploads/certificates/<name>). The generated name is unique so concurrent
// uploads never collide.
func SaveCertificateFile(file *multipart.FileHeader) (string, error) {
	if file.Size > MaxUploadBytes {
		return "", ErrFileRejected
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrFileRejected
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Sniff the content rather than trusting the client-supplied type
	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if !allowedContentTypes[strings.Split(http.DetectContentType(head[:n]), ";")[0]] {
		return "", ErrFileRejected
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	destDir := filepath.Join(config.AppConfig.UploadDir, "certificates")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	newFilename := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	dst, err := os.Create(filepath.Join(destDir, newFilename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/uploads/certificates/" + newFilename, nil
}

// DeleteStoredFile releases the file behind a stored web reference. A missing
// file is not an error; a row may outlive its blob after a crashed delete.
func DeleteStoredFile(reference string) error {
	if reference == "" {
		return nil
	}

	rel := strings.TrimPrefix(reference, "/uploads/")
	path := filepath.Join(config.AppConfig.UploadDir, filepath.FromSlash(rel))

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
