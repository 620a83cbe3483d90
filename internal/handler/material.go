package handler

import (
	"StudyVault/config"
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/internal/storage"
	"StudyVault/utils"
	"fmt"
	"io"
	"log"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.FailValidation(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// CreateMaterial submits a new material into the moderation queue.
func CreateMaterial(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	material, err := service.CreateMaterial(&req, userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, material, "material submitted for verification")
}

// ListMaterials returns the catalogue page visible to the caller.
func ListMaterials(c *gin.Context) {
	var req dto.MaterialListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, role := utils.CurrentUser(c)
	materials, total, err := service.ListMaterials(&req, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, materials, utils.NewPagination(req.Page, req.PageSize, total))
}

// GetMaterial returns a single material after an access check.
func GetMaterial(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role := utils.CurrentUser(c)
	material, err := service.GetMaterialWithAccess(materialID, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, material)
}

// UpdateMaterial applies a partial edit to a material.
func UpdateMaterial(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, role := utils.CurrentUser(c)
	material, err := service.UpdateMaterial(materialID, &req, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, material, "material updated")
}

// DeleteMaterial removes a material owned by the caller.
func DeleteMaterial(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role := utils.CurrentUser(c)
	if err := service.DeleteMaterial(c.Request.Context(), materialID, userID, role); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, nil, "material deleted")
}

// DownloadMaterial resolves a download URL for a material.
func DownloadMaterial(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role := utils.CurrentUser(c)
	result, err := service.DownloadMaterial(c.Request.Context(), materialID, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}

// StreamMaterial streams the stored file of a material through the server
// with a download filename derived from its title.
func StreamMaterial(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role := utils.CurrentUser(c)
	object, info, material, err := service.OpenMaterialObject(c.Request.Context(), materialID, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer object.Close()

	fileName := material.Title
	if fileName == "" {
		fileName = path.Base(info.ObjectName)
	} else if ext := path.Ext(info.ObjectName); ext != "" && !strings.HasSuffix(fileName, ext) {
		fileName += ext
	}
	fileName = utils.SanitizeHeaderFilename(fileName)

	contentType := mime.TypeByExtension(path.Ext(info.ObjectName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))

	if _, err := io.Copy(c.Writer, object); err != nil {
		log.Println("stream material error:", err)
	}
}

// RedeemCode exchanges an access code for a ledger entry.
func RedeemCode(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RedeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	result, err := service.RedeemCode(materialID, userID, req.AccessCode)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, result)
}

// MyMaterials lists the caller's own uploads in every status.
func MyMaterials(c *gin.Context) {
	var req dto.MaterialListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	materials, total, err := service.GetMyMaterials(userID, req.Status, req.Page, req.PageSize)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, materials, utils.NewPagination(req.Page, req.PageSize, total))
}

// AccessedMaterials lists materials the caller has redeemed codes for.
func AccessedMaterials(c *gin.Context) {
	var req dto.MaterialListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	materials, total, err := service.GetAccessedMaterials(userID, req.Page, req.PageSize)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, materials, utils.NewPagination(req.Page, req.PageSize, total))
}

// UploadFile stores a material file in object storage and returns its
// coordinates for a later submission.
func UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.FailValidation(c, "missing file")
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.FailValidation(c, "open uploaded file failed")
		return
	}
	defer src.Close()

	userID, _ := utils.CurrentUser(c)
	ext := strings.ToLower(path.Ext(file.Filename))
	objectName := fmt.Sprintf("materials/%d/%s%s", userID, uuid.NewString(), ext)
	bucket := config.AppConfig.BucketName

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err = storage.Default.PutObject(c.Request.Context(), bucket, objectName, src, file.Size,
		storage.PutOptions{ContentType: contentType})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	url, err := storage.Default.PresignedGetObject(c.Request.Context(), bucket, objectName, config.AppConfig.PresignExpiry)
	if err != nil {
		// the object exists; hand back a stable coordinate instead
		url = fmt.Sprintf("/%s/%s", bucket, objectName)
	}

	utils.Created(c, dto.UploadResponse{
		FileURL:    url,
		BucketName: bucket,
		ObjectName: objectName,
		FileSize:   file.Size,
		FileType:   strings.TrimPrefix(ext, "."),
	}, "file uploaded")
}
