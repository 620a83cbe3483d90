package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateAccessRequest opens a request for a request-based material.
func CreateAccessRequest(c *gin.Context) {
	materialID, ok := parseIDParam(c, "materialId")
	if !ok {
		return
	}
	var req dto.CreateAccessRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	request, err := service.CreateRequest(materialID, userID, req.Message)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, request, "access request submitted")
}

// MyAccessRequests lists the caller's own requests.
func MyAccessRequests(c *gin.Context) {
	var req dto.StudentRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	requests, total, err := service.GetStudentRequests(userID, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, requests, utils.NewPagination(req.Page, req.PageSize, total))
}

// IncomingAccessRequests lists requests addressed to the caller.
func IncomingAccessRequests(c *gin.Context) {
	var req dto.TeacherRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	requests, total, err := service.GetTeacherRequests(userID, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, requests, utils.NewPagination(req.Page, req.PageSize, total))
}

// RespondAccessRequest settles a pending request with approve or reject.
func RespondAccessRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RespondAccessRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	request, err := service.RespondRequest(requestID, userID, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, request, "response recorded")
}

// CancelAccessRequest withdraws the caller's own pending request.
func CancelAccessRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := utils.CurrentUser(c)
	request, err := service.CancelRequest(requestID, userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, request, "request cancelled")
}

// GetAccessRequest returns one request visible to the caller.
func GetAccessRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role := utils.CurrentUser(c)
	request, err := service.GetRequestByID(requestID, userID, role)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, request)
}

// AccessStatus reports how the caller stands with respect to a material.
func AccessStatus(c *gin.Context) {
	materialID, ok := parseIDParam(c, "materialId")
	if !ok {
		return
	}
	userID, _ := utils.CurrentUser(c)
	status, err := service.GetAccessStatus(materialID, userID, time.Now())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if c.Query("details") != "true" {
		status.RequestDetails = nil
	}
	utils.Success(c, status)
}
