package service

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/repo"
	"StudyVault/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AddBookmark bookmarks an approved material the caller can actually see.
// Private materials additionally require a redeemed code.
func AddBookmark(userID, materialID uint64) (*model.Bookmark, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	if material.UploadedBy != userID {
		if material.Status != model.MaterialStatusApproved {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		if material.AccessType == model.AccessTypePrivate {
			redeemed, err := hasLedgerEntry(userID, materialID)
			if err != nil {
				return nil, err
			}
			if !redeemed {
				return nil, apperr.New(apperr.Forbidden, "redeem the access code before bookmarking")
			}
		}
	}

	bookmark := &model.Bookmark{
		UserID:       userID,
		MaterialID:   materialID,
		MaterialType: material.MaterialType,
		CreatedAt:    time.Now(),
	}
	if err := repo.Db.Create(bookmark).Error; err != nil {
		if repo.IsDuplicateEntryError(err) {
			return nil, apperr.New(apperr.Conflict, "material already bookmarked")
		}
		return nil, err
	}
	return bookmark, nil
}

// RemoveBookmark deletes the caller's bookmark for a material.
func RemoveBookmark(userID, materialID uint64) error {
	res := repo.Db.Where("user_id = ? AND material_id = ?", userID, materialID).
		Delete(&model.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "bookmark not found")
	}
	return nil
}

// ListBookmarks pages through the caller's bookmarks, newest first.
func ListBookmarks(userID uint64, materialType string, page, pageSize int) ([]model.Bookmark, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := repo.Db.Model(&model.Bookmark{}).Where("user_id = ?", userID)
	if materialType != "" {
		query = query.Where("material_type = ?", materialType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var bookmarks []model.Bookmark
	if err := query.Preload("Material").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bookmarks).Error; err != nil {
		return nil, 0, err
	}
	return bookmarks, total, nil
}

// IsBookmarked reports whether the caller has bookmarked the material.
func IsBookmarked(userID, materialID uint64) (bool, error) {
	var count int64
	err := repo.Db.Model(&model.Bookmark{}).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Count(&count).Error
	return count > 0, err
}

// BookmarkStats counts the caller's bookmarks grouped by material type.
func BookmarkStats(userID uint64) (map[string]int64, error) {
	rows := []struct {
		MaterialType string
		Count        int64
	}{}
	err := repo.Db.Model(&model.Bookmark{}).
		Select("material_type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("material_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.MaterialType] = row.Count
	}
	return stats, nil
}
