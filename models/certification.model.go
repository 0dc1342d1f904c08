package models

import (
	"gorm.io/gorm"
)

// Lifecycle status values for Certification.Status. This tag is free-form
// bookkeeping, distinct from the approval status on a request.
const (
	CertActive  = "active"
	CertExpired = "expired"
	CertRevoked = "revoked"
	CertPending = "pending"
)

// Certification is a recognized credential. RequestID back-references the
// external reference of the request it was approved from; it is nil for
// certifications an admin created directly. The unique index is what caps
// certifications at one per request even if the approval path misbehaves.
type Certification struct {
	gorm.Model
	UserID          uint    `json:"user_id" gorm:"index;not null"`
	Name            string  `json:"name" gorm:"not null"`
	Issuer          string  `json:"issuer" gorm:"not null"`
	IssueDate       string  `json:"issue_date" gorm:"not null"`
	ExpirationDate  *string `json:"expiration_date"`
	CertificateFile string  `json:"certificate_file"`
	Status          string  `json:"status" gorm:"default:'active'"` // active, expired, revoked, pending
	Notes           string  `json:"notes"`
	RequestID       *string `json:"request_id" gorm:"unique"`
}
