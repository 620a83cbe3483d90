package handler

import (
	"StudyVault/internal/service"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// AdminDashboard returns platform-wide aggregate counters.
func AdminDashboard(c *gin.Context) {
	stats, err := service.GetAdminStats()
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, stats)
}

// TeacherDashboard returns counters over the caller's uploads and incoming
// requests.
func TeacherDashboard(c *gin.Context) {
	userID, _ := utils.CurrentUser(c)
	stats, err := service.GetTeacherStats(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, stats)
}

// StudentDashboard returns the caller's request, bookmark, and ledger
// counters.
func StudentDashboard(c *gin.Context) {
	userID, _ := utils.CurrentUser(c)
	stats, err := service.GetStudentStats(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, stats)
}
