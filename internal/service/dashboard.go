package service

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/repo"
	"StudyVault/model"
)

// GetAdminStats aggregates platform-wide counters for the admin dashboard.
func GetAdminStats() (*dto.AdminStats, error) {
	stats := &dto.AdminStats{}

	if err := repo.Db.Model(&model.User{}).Count(&stats.Users.Total).Error; err != nil {
		return nil, err
	}
	if err := repo.Db.Model(&model.User{}).Where("role = ?", model.RoleTeacher).
		Count(&stats.Users.Teachers).Error; err != nil {
		return nil, err
	}
	if err := repo.Db.Model(&model.User{}).Where("role = ?", model.RoleStudent).
		Count(&stats.Users.Students).Error; err != nil {
		return nil, err
	}

	if err := repo.Db.Model(&model.Material{}).Count(&stats.Materials.Total).Error; err != nil {
		return nil, err
	}
	if err := countMaterials(0, model.MaterialStatusPending, &stats.Materials.Pending); err != nil {
		return nil, err
	}
	if err := countMaterials(0, model.MaterialStatusApproved, &stats.Materials.Approved); err != nil {
		return nil, err
	}
	if err := countMaterials(0, model.MaterialStatusRejected, &stats.Materials.Rejected); err != nil {
		return nil, err
	}

	if err := repo.Db.Model(&model.AccessRequest{}).Count(&stats.Requests.Total).Error; err != nil {
		return nil, err
	}
	if err := repo.Db.Model(&model.AccessRequest{}).Where("status = ?", model.RequestStatusPending).
		Count(&stats.Requests.Pending).Error; err != nil {
		return nil, err
	}

	sums := struct {
		Views     int64
		Downloads int64
		Storage   int64
	}{}
	err := repo.Db.Model(&model.Material{}).
		Select("COALESCE(SUM(view_count),0) AS views, COALESCE(SUM(download_count),0) AS downloads, COALESCE(SUM(file_size),0) AS storage").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	stats.Engagement.TotalViews = sums.Views
	stats.Engagement.TotalDownloads = sums.Downloads
	stats.Engagement.StorageBytes = sums.Storage
	return stats, nil
}

// GetTeacherStats aggregates counters over a teacher's own uploads and the
// requests addressed to them.
func GetTeacherStats(teacherID uint64) (*dto.TeacherStats, error) {
	stats := &dto.TeacherStats{}

	if err := repo.Db.Model(&model.Material{}).Where("uploaded_by = ?", teacherID).
		Count(&stats.Materials.Total).Error; err != nil {
		return nil, err
	}
	if err := countMaterials(teacherID, model.MaterialStatusPending, &stats.Materials.Pending); err != nil {
		return nil, err
	}
	if err := countMaterials(teacherID, model.MaterialStatusApproved, &stats.Materials.Approved); err != nil {
		return nil, err
	}
	if err := countMaterials(teacherID, model.MaterialStatusRejected, &stats.Materials.Rejected); err != nil {
		return nil, err
	}

	if err := countRequests("teacher_id", teacherID,
		&stats.Requests.Pending, &stats.Requests.Approved, &stats.Requests.Rejected); err != nil {
		return nil, err
	}

	sums := struct {
		Views     int64
		Downloads int64
	}{}
	err := repo.Db.Model(&model.Material{}).
		Select("COALESCE(SUM(view_count),0) AS views, COALESCE(SUM(download_count),0) AS downloads").
		Where("uploaded_by = ?", teacherID).
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	stats.Engagement.TotalViews = sums.Views
	stats.Engagement.TotalDownloads = sums.Downloads
	return stats, nil
}

// GetStudentStats aggregates a student's request, bookmark, and ledger
// counters.
func GetStudentStats(studentID uint64) (*dto.StudentStats, error) {
	stats := &dto.StudentStats{}

	if err := countRequests("student_id", studentID,
		&stats.Requests.Pending, &stats.Requests.Approved, &stats.Requests.Rejected); err != nil {
		return nil, err
	}
	if err := repo.Db.Model(&model.Bookmark{}).Where("user_id = ?", studentID).
		Count(&stats.Bookmarks).Error; err != nil {
		return nil, err
	}
	if err := repo.Db.Model(&model.MaterialAccess{}).Where("user_id = ?", studentID).
		Count(&stats.AccessedMaterials).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// countMaterials counts materials in one status, optionally scoped to an
// uploader (uploaderID == 0 means platform-wide).
func countMaterials(uploaderID uint64, status string, dest *int64) error {
	query := repo.Db.Model(&model.Material{}).Where("status = ?", status)
	if uploaderID != 0 {
		query = query.Where("uploaded_by = ?", uploaderID)
	}
	return query.Count(dest).Error
}

func countRequests(column string, id uint64, pending, approved, rejected *int64) error {
	for status, dest := range map[string]*int64{
		model.RequestStatusPending:  pending,
		model.RequestStatusApproved: approved,
		model.RequestStatusRejected: rejected,
	} {
		if err := repo.Db.Model(&model.AccessRequest{}).
			Where(column+" = ? AND status = ?", id, status).
			Count(dest).Error; err != nil {
			return err
		}
	}
	return nil
}
