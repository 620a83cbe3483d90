package service

import (
	"StudyVault/config"
	"StudyVault/internal/apperr"
	"StudyVault/internal/dto"
	"StudyVault/internal/repo"
	"StudyVault/internal/storage"
	"StudyVault/model"
	"StudyVault/utils"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/context"
	"gorm.io/gorm"
)

var youtubeURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

var allowedMaterialTypes = map[string]struct{}{
	"book": {}, "note": {}, "paper": {}, "slide": {}, "report": {},
	"video": {}, "thesis": {}, "project": {}, "assignment": {}, "lab": {},
}

// GetMaterialRecord loads a material by id, going through the cache first.
func GetMaterialRecord(materialID uint64) (*model.Material, error) {
	ctx := context.Background()
	if cached, err := utils.GetCachedMaterial(ctx, materialID); err == nil {
		return cached, nil
	}

	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}
	if err := utils.CacheMaterial(ctx, &material); err != nil {
		log.Printf("cache material %d failed: %v", materialID, err)
	}
	return &material, nil
}

// CreateMaterial submits a new material into the moderation queue. Every
// submission starts out pending regardless of the uploader's role.
func CreateMaterial(req *dto.CreateMaterialRequest, uploaderID uint64) (*model.Material, error) {
	if _, ok := allowedMaterialTypes[req.MaterialType]; !ok {
		return nil, apperr.Newf(apperr.ValidationFailed, "invalid material type: %s", req.MaterialType)
	}

	hasFile := strings.TrimSpace(req.FileURL) != ""
	hasVideo := strings.TrimSpace(req.YoutubeURL) != ""
	if hasFile == hasVideo {
		return nil, apperr.New(apperr.ValidationFailed, "exactly one of file_url or youtube_url is required")
	}
	if hasVideo && !youtubeURLPattern.MatchString(req.YoutubeURL) {
		return nil, apperr.New(apperr.ValidationFailed, "invalid youtube url")
	}

	accessType := req.AccessType
	if accessType == "" {
		accessType = model.AccessTypePublic
	}
	accessCode := strings.TrimSpace(req.AccessCode)
	if accessType == model.AccessTypePrivate && accessCode == "" {
		return nil, apperr.New(apperr.ValidationFailed, "access code is required for private materials")
	}
	if accessType != model.AccessTypePrivate {
		// accessCode is only meaningful for private materials.
		accessCode = ""
	}

	material := &model.Material{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Author:       strings.TrimSpace(req.Author),
		MaterialType: req.MaterialType,
		FileURL:      req.FileURL,
		BucketName:   req.BucketName,
		ObjectName:   req.ObjectName,
		FileSize:     req.FileSize,
		FileType:     req.FileType,
		YoutubeURL:   req.YoutubeURL,
		AccessType:   accessType,
		AccessCode:   accessCode,
		UploadedBy:   uploaderID,
		Status:       model.MaterialStatusPending,
	}
	if hasVideo {
		material.FileType = "video"
	}

	if err := repo.Db.Create(material).Error; err != nil {
		return nil, err
	}
	return material, nil
}

// DecideMaterial records an administrator's moderation decision. The update
// is keyed on status=pending so a second concurrent decision affects zero
// rows and surfaces as InvalidState instead of silently overwriting.
func DecideMaterial(materialID, adminID uint64, decision, reason string) (*model.Material, error) {
	reason = strings.TrimSpace(reason)
	var target string
	switch decision {
	case "approve":
		target = model.MaterialStatusApproved
		reason = ""
	case "reject":
		if reason == "" {
			return nil, apperr.New(apperr.ValidationFailed, "rejection requires a reason")
		}
		target = model.MaterialStatusRejected
	default:
		return nil, apperr.Newf(apperr.ValidationFailed, "invalid decision: %s", decision)
	}

	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	now := time.Now()
	res := repo.Db.Model(&model.Material{}).
		Where("id = ? AND status = ?", materialID, model.MaterialStatusPending).
		Updates(map[string]interface{}{
			"status":           target,
			"verified_by":      adminID,
			"verified_at":      &now,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// raced with another decision; report what the row settled to
		if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
			return nil, err
		}
		return nil, apperr.Newf(apperr.InvalidState,
			"material is not pending verification (current status: %s)", material.Status)
	}

	_ = utils.InvalidateMaterial(context.Background(), materialID)

	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		return nil, err
	}

	if target == model.MaterialStatusApproved {
		NotifyUser(material.UploadedBy, model.NotifyMaterialApproved,
			"Material approved",
			fmt.Sprintf("Your material %q has been approved.", material.Title),
			"material", material.ID)
	} else {
		NotifyUser(material.UploadedBy, model.NotifyMaterialRejected,
			"Material rejected",
			fmt.Sprintf("Your material %q was rejected: %s", material.Title, reason),
			"material", material.ID)
	}
	return &material, nil
}

// materialContentTouched reports whether a patch modifies fields that
// require re-moderation.
func materialContentTouched(req *dto.UpdateMaterialRequest) bool {
	return req.Title != nil || req.Description != nil ||
		req.FileURL != nil || req.YoutubeURL != nil
}

// UpdateMaterial applies a partial edit. Content edits by non-admins send
// the material back through moderation regardless of its current status.
func UpdateMaterial(materialID uint64, req *dto.UpdateMaterialRequest, editorID uint64, editorRole string) (*model.Material, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	isOwner := material.UploadedBy == editorID
	if editorRole != model.RoleAdmin && !isOwner {
		return nil, apperr.New(apperr.Forbidden, "you can only update your own materials")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Author != nil {
		updates["author"] = strings.TrimSpace(*req.Author)
	}
	if req.FileURL != nil {
		updates["file_url"] = *req.FileURL
	}
	if req.YoutubeURL != nil {
		if *req.YoutubeURL != "" && !youtubeURLPattern.MatchString(*req.YoutubeURL) {
			return nil, apperr.New(apperr.ValidationFailed, "invalid youtube url")
		}
		updates["youtube_url"] = *req.YoutubeURL
		if *req.YoutubeURL != "" {
			updates["file_type"] = "video"
		}
	}
	if req.FileSize != nil {
		updates["file_size"] = *req.FileSize
	}
	if req.FileType != nil {
		updates["file_type"] = *req.FileType
	}

	accessType := material.AccessType
	if req.AccessType != nil {
		accessType = *req.AccessType
		updates["access_type"] = accessType
	}
	accessCode := material.AccessCode
	if req.AccessCode != nil {
		accessCode = strings.TrimSpace(*req.AccessCode)
	}
	if accessType == model.AccessTypePrivate {
		if accessCode == "" {
			return nil, apperr.New(apperr.ValidationFailed, "access code is required for private materials")
		}
		updates["access_code"] = accessCode
	} else {
		updates["access_code"] = ""
	}

	// Exactly one content source must remain after the patch.
	fileURL := material.FileURL
	if req.FileURL != nil {
		fileURL = *req.FileURL
	}
	youtubeURL := material.YoutubeURL
	if req.YoutubeURL != nil {
		youtubeURL = *req.YoutubeURL
	}
	if (strings.TrimSpace(fileURL) != "") == (strings.TrimSpace(youtubeURL) != "") {
		return nil, apperr.New(apperr.ValidationFailed, "exactly one of file_url or youtube_url is required")
	}

	if editorRole != model.RoleAdmin && materialContentTouched(req) {
		updates["status"] = model.MaterialStatusPending
		updates["verified_by"] = nil
		updates["verified_at"] = nil
		updates["rejection_reason"] = ""
	}

	if err := repo.Db.Model(&model.Material{}).Where("id = ?", materialID).Updates(updates).Error; err != nil {
		return nil, err
	}

	_ = utils.InvalidateMaterial(context.Background(), materialID)

	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// DeleteMaterial removes a material with its ledger entries and bookmarks.
// Access requests referencing it are kept as an audit trail; readers must
// tolerate the dangling material id.
func DeleteMaterial(ctx context.Context, materialID, callerID uint64, callerRole string) error {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "material not found")
		}
		return err
	}

	if callerRole != model.RoleAdmin && material.UploadedBy != callerID {
		return apperr.New(apperr.Forbidden, "you can only delete your own materials")
	}

	err := repo.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("material_id = ?", materialID).Delete(&model.MaterialAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("material_id = ?", materialID).Delete(&model.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&material).Error
	})
	if err != nil {
		return err
	}

	_ = utils.InvalidateMaterial(ctx, materialID)

	if material.ObjectName != "" && storage.Default != nil {
		bucket := material.BucketName
		if bucket == "" {
			bucket = defaultBucket()
		}
		if err := storage.Default.RemoveObject(ctx, bucket, material.ObjectName); err != nil {
			log.Printf("remove object %s/%s failed: %v", bucket, material.ObjectName, err)
		}
	}
	return nil
}

// GetMaterialWithAccess fetches a material after evaluating the caller's
// access. Successful reads bump the view counter; the counter is a metric,
// not an invariant, and may under-count under load.
func GetMaterialWithAccess(materialID, userID uint64, userRole string) (*model.Material, error) {
	material, err := GetMaterialRecord(materialID)
	if err != nil {
		return nil, err
	}

	if userRole != model.RoleAdmin && material.UploadedBy != userID {
		decision, err := EvaluateAccess(material, userID, time.Now())
		if err != nil {
			return nil, err
		}
		if !decision.HasAccess {
			switch decision.Reason {
			case ReasonNotAvailable:
				return nil, apperr.New(apperr.NotFound, "material not found")
			case ReasonCodeRequired:
				return nil, apperr.New(apperr.Forbidden, "access denied: you need the access code to view this material")
			default:
				return nil, apperr.New(apperr.Forbidden, "access denied: please request access from the uploader")
			}
		}
	}

	bumpViewCount(materialID)
	material.ViewCount++
	return material, nil
}

// DownloadMaterial resolves an access-checked download for a material.
func DownloadMaterial(ctx context.Context, materialID, userID uint64, userRole string) (*dto.DownloadResult, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, err
	}

	if userRole != model.RoleAdmin {
		decision, err := EvaluateAccess(&material, userID, time.Now())
		if err != nil {
			return nil, err
		}
		if !decision.HasAccess {
			if decision.Reason == ReasonNotAvailable {
				return nil, apperr.New(apperr.Forbidden, "material not available for download")
			}
			return nil, apperr.New(apperr.Forbidden, "access denied")
		}
	}

	bumpDownloadCount(materialID)
	material.DownloadCount++

	if material.YoutubeURL != "" {
		return &dto.DownloadResult{WatchURL: material.YoutubeURL, Material: &material}, nil
	}

	result := &dto.DownloadResult{DownloadURL: material.FileURL, Material: &material}
	if material.ObjectName != "" && storage.Default != nil {
		bucket := material.BucketName
		if bucket == "" {
			bucket = defaultBucket()
		}
		url, err := storage.Default.PresignedGetObject(ctx, bucket, material.ObjectName, config.AppConfig.PresignExpiry)
		if err != nil {
			log.Printf("presign %s/%s failed: %v", bucket, material.ObjectName, err)
		} else {
			result.DownloadURL = url
		}
	}
	return result, nil
}

// defaultBucket resolves the bucket for materials stored without an
// explicit one, preferring the live MinIO binding so tests hit the test
// bucket.
func defaultBucket() string {
	if storage.Minio != nil {
		return storage.Minio.Bucket
	}
	return config.AppConfig.BucketName
}

// OpenMaterialObject opens the stored file of a material for streaming.
// Callers own the reader and must close it. Video materials have no stored
// object and are refused here; their watch URL comes from DownloadMaterial.
func OpenMaterialObject(ctx context.Context, materialID, userID uint64, userRole string) (io.ReadCloser, storage.ObjectInfo, *model.Material, error) {
	var material model.Material
	if err := repo.Db.Where("id = ?", materialID).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ObjectInfo{}, nil, apperr.New(apperr.NotFound, "material not found")
		}
		return nil, storage.ObjectInfo{}, nil, err
	}

	if userRole != model.RoleAdmin {
		decision, err := EvaluateAccess(&material, userID, time.Now())
		if err != nil {
			return nil, storage.ObjectInfo{}, nil, err
		}
		if !decision.HasAccess {
			if decision.Reason == ReasonNotAvailable {
				return nil, storage.ObjectInfo{}, nil, apperr.New(apperr.Forbidden, "material not available for download")
			}
			return nil, storage.ObjectInfo{}, nil, apperr.New(apperr.Forbidden, "access denied")
		}
	}

	if material.ObjectName == "" {
		return nil, storage.ObjectInfo{}, nil, apperr.New(apperr.InvalidState, "material has no stored file")
	}

	bucket := material.BucketName
	if bucket == "" {
		bucket = defaultBucket()
	}
	object, info, err := storage.Default.GetObject(ctx, bucket, material.ObjectName)
	if err != nil {
		return nil, storage.ObjectInfo{}, nil, err
	}

	bumpDownloadCount(materialID)
	return object, info, &material, nil
}

// visibleMaterialsQuery scopes a query to what the caller may list: admins
// see everything, everyone else sees approved materials that are public,
// request-based, their own uploads, or private ones they have redeemed.
func visibleMaterialsQuery(userID uint64, userRole string) *gorm.DB {
	query := repo.Db.Model(&model.Material{})
	if userRole == model.RoleAdmin {
		return query
	}
	ledger := repo.Db.Model(&model.MaterialAccess{}).
		Select("material_id").
		Where("user_id = ?", userID)
	return query.
		Where("status = ?", model.MaterialStatusApproved).
		Where(
			repo.Db.Where("access_type IN ?", []string{model.AccessTypePublic, model.AccessTypeRequestBased}).
				Or("uploaded_by = ?", userID).
				Or("id IN (?)", ledger),
		)
}

// ListMaterials returns the catalogue page visible to the caller.
func ListMaterials(req *dto.MaterialListRequest, userID uint64, userRole string) ([]model.Material, int64, error) {
	query := visibleMaterialsQuery(userID, userRole)

	if req.MaterialType != "" {
		query = query.Where("material_type = ?", req.MaterialType)
	}
	if req.AccessType != "" {
		query = query.Where("access_type = ?", req.AccessType)
	}
	if userRole == model.RoleAdmin && req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Search != "" {
		like := fmt.Sprintf("%%%s%%", req.Search)
		query = query.Where("(title LIKE ? OR description LIKE ?)", like, like)
	}

	return pageMaterials(query, req.Page, req.PageSize, req.OrderBy, req.OrderDesc)
}

// GetMyMaterials returns the uploader's own materials in every status.
func GetMyMaterials(userID uint64, status string, page, pageSize int) ([]model.Material, int64, error) {
	query := repo.Db.Model(&model.Material{}).Where("uploaded_by = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return pageMaterials(query, page, pageSize, "", true)
}

// GetAccessedMaterials lists approved materials the user has redeemed.
func GetAccessedMaterials(userID uint64, page, pageSize int) ([]model.Material, int64, error) {
	ledger := repo.Db.Model(&model.MaterialAccess{}).
		Select("material_id").
		Where("user_id = ?", userID)
	query := repo.Db.Model(&model.Material{}).
		Where("status = ?", model.MaterialStatusApproved).
		Where("id IN (?)", ledger)
	return pageMaterials(query, page, pageSize, "", true)
}

// GetPendingMaterials lists the moderation queue, oldest first.
func GetPendingMaterials(page, pageSize int) ([]model.Material, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := repo.Db.Model(&model.Material{}).Where("status = ?", model.MaterialStatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var materials []model.Material
	if err := query.Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&materials).Error; err != nil {
		return nil, 0, err
	}
	return materials, total, nil
}

func pageMaterials(query *gorm.DB, page, pageSize int, orderBy string, desc bool) ([]model.Material, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if column := sanitizeOrderBy(orderBy); column != "" {
		if desc {
			order = column + " DESC"
		} else {
			order = column + " ASC"
		}
	}

	var materials []model.Material
	if err := query.Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&materials).Error; err != nil {
		return nil, 0, err
	}
	return materials, total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 10
	}
	return page, pageSize
}

// Engagement counters are best-effort; concurrent bumps may under-count.
func bumpViewCount(materialID uint64) {
	if err := repo.Db.Model(&model.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		log.Printf("bump view count %d failed: %v", materialID, err)
	}
}

func bumpDownloadCount(materialID uint64) {
	if err := repo.Db.Model(&model.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error; err != nil {
		log.Printf("bump download count %d failed: %v", materialID, err)
	}
}
