package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// AddBookmark bookmarks a material for the caller.
func AddBookmark(c *gin.Context) {
	materialID, ok := parseIDParam(c, "materialId")
	if !ok {
		return
	}
	userID, _ := utils.CurrentUser(c)
	bookmark, err := service.AddBookmark(userID, materialID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, bookmark, "material bookmarked")
}

// RemoveBookmark drops the caller's bookmark for a material.
func RemoveBookmark(c *gin.Context) {
	materialID, ok := parseIDParam(c, "materialId")
	if !ok {
		return
	}
	userID, _ := utils.CurrentUser(c)
	if err := service.RemoveBookmark(userID, materialID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, nil, "bookmark removed")
}

// ListBookmarks pages through the caller's bookmarks.
func ListBookmarks(c *gin.Context) {
	var req dto.BookmarkListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	bookmarks, total, err := service.ListBookmarks(userID, req.MaterialType, req.Page, req.PageSize)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, bookmarks, utils.NewPagination(req.Page, req.PageSize, total))
}

// BookmarkStatus reports whether the caller bookmarked a material.
func BookmarkStatus(c *gin.Context) {
	materialID, ok := parseIDParam(c, "materialId")
	if !ok {
		return
	}
	userID, _ := utils.CurrentUser(c)
	bookmarked, err := service.IsBookmarked(userID, materialID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"bookmarked": bookmarked})
}

// BookmarkStats counts the caller's bookmarks by material type.
func BookmarkStats(c *gin.Context) {
	userID, _ := utils.CurrentUser(c)
	stats, err := service.BookmarkStats(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, stats)
}
