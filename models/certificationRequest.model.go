package models

import (
	"time"

	"gorm.io/gorm"
)

// Approval status values for CertificationRequest.ApprovalStatus
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// CertificationRequest is a user's claim awaiting admin review. RequestID is
// the shareable external reference minted at submission; it joins an approved
// request to the certification created from it.
type CertificationRequest struct {
	gorm.Model
	RequestID       string     `json:"request_id" gorm:"unique;not null"`
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	Name            string     `json:"name" gorm:"not null"`
	Issuer          string     `json:"issuer" gorm:"not null"`
	IssueDate       string     `json:"issue_date" gorm:"not null"`
	ExpirationDate  *string    `json:"expiration_date"`
	CertificateFile string     `json:"certificate_file"`
	Notes           string     `json:"notes"`
	ApprovalStatus  string     `json:"approval_status" gorm:"default:'pending'"` // pending, approved, rejected
	ApprovedBy      *uint      `json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason string     `json:"rejection_reason"`
}
