package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// SearchMaterials runs a catalogue search scoped to the caller.
func SearchMaterials(c *gin.Context) {
	var req dto.SearchMaterialsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, role := utils.CurrentUser(c)
	materials, total, err := service.SearchMaterials(&req, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, materials, utils.NewPagination(req.Page, req.PageSize, total))
}
