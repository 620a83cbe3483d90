package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"
	"time"

	"github.com/gin-gonic/gin"
)

// PendingMaterials lists the moderation queue, oldest first.
func PendingMaterials(c *gin.Context) {
	var req dto.MaterialListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	materials, total, err := service.GetPendingMaterials(req.Page, req.PageSize)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, materials, utils.NewPagination(req.Page, req.PageSize, total))
}

// VerifyMaterial records an approve or reject decision.
func VerifyMaterial(c *gin.Context) {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.VerifyMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	adminID, _ := utils.CurrentUser(c)
	material, err := service.DecideMaterial(materialID, adminID, req.Decision, req.Reason)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, material, "decision recorded")
}

// SweepAccessRequests runs the auto-cancel sweep on demand.
func SweepAccessRequests(c *gin.Context) {
	cancelled, err := service.AutoCancelSweep(time.Now())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, gin.H{"cancelled": cancelled}, "sweep completed")
}
