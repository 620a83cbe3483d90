package service

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/dto"
	"StudyVault/internal/repo"
	"StudyVault/model"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CreateRequest opens an access request for a request-based material. The
// (student, material, active) unique key is the authoritative guard against
// duplicate live requests; a duplicate-entry error from MySQL is surfaced
// as Conflict, so two racing creates end with exactly one row.
func CreateRequest(materialID, studentID uint64, message string) (*model.AccessRequest, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	if material.UploadedBy == studentID {
		return nil, apperr.New(apperr.Conflict, "you already have access to this material")
	}
	if material.AccessType != model.AccessTypeRequestBased {
		return nil, apperr.New(apperr.InvalidState, "material does not accept access requests")
	}
	if material.Status != model.MaterialStatusApproved {
		return nil, apperr.New(apperr.NotFound, "material not found")
	}

	now := time.Now()
	if ok, err := HasActiveApproval(studentID, materialID, now); err != nil {
		return nil, err
	} else if ok {
		return nil, apperr.New(apperr.Conflict, "you already have access to this material")
	}

	request := &model.AccessRequest{
		StudentID:      studentID,
		MaterialID:     materialID,
		TeacherID:      material.UploadedBy,
		Status:         model.RequestStatusPending,
		Active:         model.ActiveFlag(),
		RequestMessage: strings.TrimSpace(message),
		AutoCancelAt:   now.Add(model.AutoCancelAfter),
	}
	if err := repo.Db.Create(request).Error; err != nil {
		if repo.IsDuplicateEntryError(err) {
			return nil, apperr.New(apperr.Conflict, "an active request for this material already exists")
		}
		return nil, err
	}

	NotifyUser(material.UploadedBy, model.NotifyAccessRequest,
		"New access request",
		fmt.Sprintf("A student requested access to %q.", material.Title),
		"access_request", request.ID)
	return request, nil
}

// RespondRequest settles a pending request with approve or reject. The
// transition is a conditional update on (id, teacher, pending); zero rows
// affected means the request was missing, someone else's, or already
// settled, and the follow-up read tells the caller which.
func RespondRequest(requestID, teacherID uint64, req *dto.RespondAccessRequestRequest) (*model.AccessRequest, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"responded_at":     &now,
		"response_message": strings.TrimSpace(req.Message),
	}
	switch req.Action {
	case "approve":
		updates["status"] = model.RequestStatusApproved
		if req.ExpiresInDays != nil {
			expires := now.Add(time.Duration(*req.ExpiresInDays) * 24 * time.Hour)
			updates["access_expires_at"] = &expires
		}
	case "reject":
		updates["status"] = model.RequestStatusRejected
		updates["active"] = nil
	default:
		return nil, apperr.Newf(apperr.ValidationFailed, "invalid action: %s", req.Action)
	}

	res := repo.Db.Model(&model.AccessRequest{}).
		Where("id = ? AND teacher_id = ? AND status = ?", requestID, teacherID, model.RequestStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, diagnoseMissedTransition(requestID, teacherID, "teacher_id")
	}

	var request model.AccessRequest
	if err := repo.Db.Preload("Material").Preload("Student").
		Where("id = ?", requestID).First(&request).Error; err != nil {
		return nil, err
	}

	title := request.Material.Title
	if req.Action == "approve" {
		NotifyUser(request.StudentID, model.NotifyAccessApproved,
			"Access request approved",
			fmt.Sprintf("Your request for %q was approved.", title),
			"access_request", request.ID)
	} else {
		NotifyUser(request.StudentID, model.NotifyAccessRejected,
			"Access request rejected",
			fmt.Sprintf("Your request for %q was rejected.", title),
			"access_request", request.ID)
	}
	return &request, nil
}

// CancelRequest lets a student withdraw their own pending request. A new
// request for the same material may be opened afterwards; the unique key
// ignores settled rows.
func CancelRequest(requestID, studentID uint64) (*model.AccessRequest, error) {
	res := repo.Db.Model(&model.AccessRequest{}).
		Where("id = ? AND student_id = ? AND status = ?", requestID, studentID, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status": model.RequestStatusCancelled,
			"active": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, diagnoseMissedTransition(requestID, studentID, "student_id")
	}

	var request model.AccessRequest
	if err := repo.Db.Where("id = ?", requestID).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// diagnoseMissedTransition explains a zero-row conditional update: the row
// never existed, belongs to someone else, or already left pending.
func diagnoseMissedTransition(requestID, callerID uint64, ownerColumn string) error {
	var request model.AccessRequest
	if err := repo.Db.Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "access request not found")
		}
		return err
	}
	owner := request.TeacherID
	if ownerColumn == "student_id" {
		owner = request.StudentID
	}
	if owner != callerID {
		return apperr.New(apperr.Forbidden, "access request belongs to another user")
	}
	return apperr.Newf(apperr.InvalidState,
		"cannot modify request with status: %s", request.Status)
}

// AutoCancelSweep cancels pending requests whose grace period has lapsed.
// The update is idempotent, so overlapping sweeps are harmless; it returns
// the number of rows cancelled.
func AutoCancelSweep(now time.Time) (int64, error) {
	res := repo.Db.Model(&model.AccessRequest{}).
		Where("status = ? AND auto_cancel_at <= ?", model.RequestStatusPending, now).
		Updates(map[string]interface{}{
			"status":           model.RequestStatusCancelled,
			"active":           nil,
			"response_message": "automatically cancelled after 7 days without a response",
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// HasActiveApproval reports whether the student holds a currently valid
// approval for the material.
func HasActiveApproval(studentID, materialID uint64, now time.Time) (bool, error) {
	var requests []model.AccessRequest
	err := repo.Db.
		Where("student_id = ? AND material_id = ? AND status = ? AND active IS NOT NULL",
			studentID, materialID, model.RequestStatusApproved).
		Find(&requests).Error
	if err != nil {
		return false, err
	}
	for i := range requests {
		if IsAccessValid(&requests[i], now) {
			return true, nil
		}
	}
	return false, nil
}

// GetStudentRequests pages through the caller's own requests.
func GetStudentRequests(studentID uint64, req *dto.StudentRequestsRequest) ([]model.AccessRequest, int64, error) {
	query := repo.Db.Model(&model.AccessRequest{}).Where("student_id = ?", studentID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	return pageRequests(query.Preload("Material").Preload("Teacher"),
		req.Page, req.PageSize, req.OrderBy, req.OrderDesc)
}

// GetTeacherRequests pages through requests addressed to the caller, with
// optional status, period, and free-text filters.
func GetTeacherRequests(teacherID uint64, req *dto.TeacherRequestsRequest) ([]model.AccessRequest, int64, error) {
	query := repo.Db.Model(&model.AccessRequest{}).Where("teacher_id = ?", teacherID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if since, ok := periodStart(req.Period, time.Now()); ok {
		query = query.Where("access_request.created_at >= ?", since)
	}
	if req.Search != "" {
		like := fmt.Sprintf("%%%s%%", req.Search)
		students := repo.Db.Model(&model.User{}).Select("id").Where("user_name LIKE ?", like)
		materials := repo.Db.Model(&model.Material{}).Select("id").Where("title LIKE ?", like)
		query = query.Where("(student_id IN (?) OR material_id IN (?))", students, materials)
	}
	return pageRequests(query.Preload("Material").Preload("Student"),
		req.Page, req.PageSize, req.OrderBy, req.OrderDesc)
}

// GetRequestByID returns a request visible to the caller: its student, its
// teacher, or an admin.
func GetRequestByID(requestID, callerID uint64, callerRole string) (*model.AccessRequest, error) {
	var request model.AccessRequest
	err := repo.Db.Preload("Material").Preload("Student").Preload("Teacher").
		Where("id = ?", requestID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "access request not found")
		}
		return nil, err
	}
	if callerRole != model.RoleAdmin && request.StudentID != callerID && request.TeacherID != callerID {
		return nil, apperr.New(apperr.Forbidden, "access request belongs to another user")
	}
	return &request, nil
}

func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "today":
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

func pageRequests(query *gorm.DB, page, pageSize int, orderBy string, desc bool) ([]model.AccessRequest, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	switch column := sanitizeOrderBy(orderBy); column {
	case "created_at", "updated_at", "auto_cancel_at":
		if desc {
			order = column + " DESC"
		} else {
			order = column + " ASC"
		}
	}

	var requests []model.AccessRequest
	if err := query.Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
