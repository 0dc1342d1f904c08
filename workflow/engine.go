// Package workflow drives certification requests through the approval state
// machine: pending -> approved or pending -> rejected, nothing else. Approval
// additionally materializes exactly one certification per request, surviving
// retried and concurrent approval attempts.
package workflow

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"certtrack/models"

	"gorm.io/gorm"
)

// DefaultRejectionReason is stored when an admin rejects without giving one.
const DefaultRejectionReason = "Rejected by admin"

// Engine owns the approval state machine. The storage handle is injected at
// construction; the engine never reaches for global state.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Approve transitions a pending request to approved and creates the matching
// certification. The transition is a compare-and-swap on the pending status,
// so of N concurrent calls exactly one performs it; the rest see
// ErrInvalidState. If the certification insert fails the transition is rolled
// back and the request re-enters the pending queue. A retried approval whose
// certification already exists returns that certification as a success.
func (e *Engine) Approve(requestID, approverID uint) (*models.CertificationRequest, *models.Certification, error) {
	var req models.CertificationRequest
	if err := e.db.First(&req, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if req.ApprovalStatus != models.StatusPending {
		return nil, nil, ErrInvalidState
	}

	now := time.Now()
	res := e.db.Model(&models.CertificationRequest{}).
		Where("id = ? AND approval_status = ?", req.ID, models.StatusPending).
		Updates(map[string]interface{}{
			"approval_status": models.StatusApproved,
			"approved_by":     approverID,
			"approved_at":     now,
		})
	if res.Error != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		// Another approval or rejection got there first.
		return nil, nil, ErrInvalidState
	}

	req.ApprovalStatus = models.StatusApproved
	req.ApprovedBy = &approverID
	req.ApprovedAt = &now

	// A certification may already exist if a previous approval attempt made
	// it past the insert before its response was lost. Duplicate approval is
	// then a no-op success, not an error.
	var existing models.Certification
	err := e.db.Where("request_id = ?", req.RequestID).First(&existing).Error
	if err == nil {
		return &req, &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, nil, e.failApproval(&req, fmt.Errorf("%w: %v", ErrStorage, err))
	}

	cert := models.Certification{
		UserID:          req.UserID,
		Name:            req.Name,
		Issuer:          req.Issuer,
		IssueDate:       req.IssueDate,
		ExpirationDate:  req.ExpirationDate,
		CertificateFile: req.CertificateFile,
		Notes:           req.Notes,
		Status:          models.CertActive,
		RequestID:       &req.RequestID,
	}
	if err := e.db.Create(&cert).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost a race between the existence check and the insert; the
			// winner's certification satisfies this approval too.
			if lookupErr := e.db.Where("request_id = ?", req.RequestID).First(&existing).Error; lookupErr == nil {
				return &req, &existing, nil
			}
			return nil, nil, e.failApproval(&req, ErrConflict)
		}
		return nil, nil, e.failApproval(&req, fmt.Errorf("%w: %v", ErrStorage, err))
	}

	return &req, &cert, nil
}

// Reject transitions a pending request to rejected, recording who, when and
// why. No certification is involved. Terminal.
func (e *Engine) Reject(requestID, approverID uint, reason string) (*models.CertificationRequest, error) {
	var req models.CertificationRequest
	if err := e.db.First(&req, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if req.ApprovalStatus != models.StatusPending {
		return nil, ErrInvalidState
	}

	if reason == "" {
		reason = DefaultRejectionReason
	}

	now := time.Now()
	res := e.db.Model(&models.CertificationRequest{}).
		Where("id = ? AND approval_status = ?", req.ID, models.StatusPending).
		Updates(map[string]interface{}{
			"approval_status":  models.StatusRejected,
			"approved_by":      approverID,
			"approved_at":      now,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	req.ApprovalStatus = models.StatusRejected
	req.ApprovedBy = &approverID
	req.ApprovedAt = &now
	req.RejectionReason = reason

	return &req, nil
}

// failApproval reverts a request to pending after certification creation
// failed, so it re-enters the approval queue instead of sitting approved with
// no certification. The revert is itself conditioned on the approved status.
// If the revert fails the original cause is superseded by ErrRollbackFailed,
// which callers must treat as fatal.
func (e *Engine) failApproval(req *models.CertificationRequest, cause error) error {
	res := e.db.Model(&models.CertificationRequest{}).
		Where("id = ? AND approval_status = ?", req.ID, models.StatusApproved).
		Updates(map[string]interface{}{
			"approval_status": models.StatusPending,
			"approved_by":     nil,
			"approved_at":     nil,
		})
	if res.Error != nil {
		log.Printf("Error rolling back approval of request %d: %v (original cause: %v)", req.ID, res.Error, cause)
		return fmt.Errorf("%w: %v", ErrRollbackFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("Rollback of request %d matched no approved row (original cause: %v)", req.ID, cause)
		return fmt.Errorf("%w: request no longer in approved state", ErrRollbackFailed)
	}

	req.ApprovalStatus = models.StatusPending
	req.ApprovedBy = nil
	req.ApprovedAt = nil

	return cause
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint")
}
