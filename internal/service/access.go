package service

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/dto"
	"StudyVault/internal/repo"
	"StudyVault/model"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reasons attached to a denied access decision.
const (
	ReasonNotAvailable    = "not_available"
	ReasonCodeRequired    = "code_required"
	ReasonRequestRequired = "request_required"
)

// AccessDecision is the outcome of evaluating a user against a material.
type AccessDecision struct {
	HasAccess bool
	Reason    string
}

// IsAccessValid reports whether an access request currently grants access:
// it must be approved and either unexpired or open-ended. Expired approvals
// keep status=approved; expiry is derived at read time, never written back.
func IsAccessValid(req *model.AccessRequest, now time.Time) bool {
	if req.Status != model.RequestStatusApproved {
		return false
	}
	return req.AccessExpiresAt == nil || req.AccessExpiresAt.After(now)
}

// IsRequestExpired reports whether a pending request has outlived its
// auto-cancel deadline.
func IsRequestExpired(req *model.AccessRequest, now time.Time) bool {
	return req.Status == model.RequestStatusPending && !req.AutoCancelAt.After(now)
}

// EvaluateAccess decides whether userID may consume the material. The
// uploader always may; everyone else only sees approved materials, then the
// access type picks the gate: public is open, private needs a redeemed code
// in the ledger, request-based needs a valid approval.
func EvaluateAccess(material *model.Material, userID uint64, now time.Time) (*AccessDecision, error) {
	if material.UploadedBy == userID {
		return &AccessDecision{HasAccess: true}, nil
	}
	if material.Status != model.MaterialStatusApproved {
		return &AccessDecision{HasAccess: false, Reason: ReasonNotAvailable}, nil
	}

	switch material.AccessType {
	case model.AccessTypePublic:
		return &AccessDecision{HasAccess: true}, nil

	case model.AccessTypePrivate:
		redeemed, err := hasLedgerEntry(userID, material.ID)
		if err != nil {
			return nil, err
		}
		if redeemed {
			return &AccessDecision{HasAccess: true}, nil
		}
		return &AccessDecision{HasAccess: false, Reason: ReasonCodeRequired}, nil

	case model.AccessTypeRequestBased:
		ok, err := HasActiveApproval(userID, material.ID, now)
		if err != nil {
			return nil, err
		}
		if ok {
			return &AccessDecision{HasAccess: true}, nil
		}
		return &AccessDecision{HasAccess: false, Reason: ReasonRequestRequired}, nil

	default:
		return &AccessDecision{HasAccess: false, Reason: ReasonNotAvailable}, nil
	}
}

// RedeemCode checks a code against a private material and records the grant
// in the ledger. Redemption is idempotent; a wrong code is a plain negative
// result and changes nothing.
func RedeemCode(materialID, userID uint64, code string) (*dto.RedeemResult, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	if material.AccessType != model.AccessTypePrivate {
		return nil, apperr.New(apperr.InvalidState, "material does not use access codes")
	}
	if material.Status != model.MaterialStatusApproved {
		return nil, apperr.New(apperr.NotFound, "material not found")
	}

	if material.AccessCode != code {
		return &dto.RedeemResult{HasAccess: false, Message: "invalid access code"}, nil
	}

	if err := grantLedgerEntry(userID, materialID, code); err != nil {
		return nil, err
	}
	return &dto.RedeemResult{HasAccess: true, Message: "access granted", Material: &material}, nil
}

// GetAccessStatus summarises where a user stands with a material, including
// the most relevant access request if one exists. Approved-and-valid wins
// over pending, pending over rejected.
func GetAccessStatus(materialID, userID uint64, now time.Time) (*dto.AccessStatus, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	status := &dto.AccessStatus{
		AccessType: material.AccessType,
		IsUploader: material.UploadedBy == userID,
	}

	decision, err := EvaluateAccess(&material, userID, now)
	if err != nil {
		return nil, err
	}
	status.HasAccess = decision.HasAccess

	if material.AccessType != model.AccessTypeRequestBased || status.IsUploader {
		return status, nil
	}

	var requests []model.AccessRequest
	if err := repo.Db.
		Where("student_id = ? AND material_id = ?", userID, materialID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}

	var best *model.AccessRequest
	rank := func(r *model.AccessRequest) int {
		switch {
		case IsAccessValid(r, now):
			return 3
		case r.Status == model.RequestStatusPending:
			return 2
		case r.Status == model.RequestStatusRejected:
			return 1
		default:
			return 0
		}
	}
	for i := range requests {
		if best == nil || rank(&requests[i]) > rank(best) {
			best = &requests[i]
		}
	}
	if best != nil && rank(best) > 0 {
		status.RequestStatus = best.Status
		status.RequestDetails = best
	}
	return status, nil
}

func hasLedgerEntry(userID, materialID uint64) (bool, error) {
	var count int64
	err := repo.Db.Model(&model.MaterialAccess{}).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Count(&count).Error
	return count > 0, err
}

// grantLedgerEntry records a redeemed grant, tolerating replays via the
// (user, material) unique key.
func grantLedgerEntry(userID, materialID uint64, code string) error {
	entry := model.MaterialAccess{
		UserID:     userID,
		MaterialID: materialID,
		AccessCode: code,
		AccessedAt: time.Now(),
	}
	return repo.Db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}
