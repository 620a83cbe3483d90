package utils

import (
	"StudyVault/internal/apperr"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pagination mirrors the list envelope consumed by the frontend.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
	Limit       int   `json:"limit"`
}

// NewPagination computes page bounds for a list response.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
		Limit:       limit,
	}
}

// Success writes a success JSON response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": "OK",
		"msg":  "success",
		"data": data,
	})
}

// SuccessMsg writes a success response with a caller-facing message.
func SuccessMsg(c *gin.Context, data interface{}, msg string) {
	c.JSON(http.StatusOK, gin.H{
		"code": "OK",
		"msg":  msg,
		"data": data,
	})
}

// Created writes a 201 response for newly created resources.
func Created(c *gin.Context, data interface{}, msg string) {
	c.JSON(http.StatusCreated, gin.H{
		"code": "OK",
		"msg":  msg,
		"data": data,
	})
}

// SuccessPage writes a paginated success response.
func SuccessPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, gin.H{
		"code":       "OK",
		"msg":        "success",
		"data":       data,
		"pagination": pagination,
	})
}

// Fail maps a service error onto the transport envelope.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		body := gin.H{
			"code": appErr.Kind.Code(),
			"msg":  appErr.Message,
		}
		if appErr.Detail != "" {
			body["detail"] = appErr.Detail
		}
		c.JSON(appErr.Kind.HTTPStatus(), body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"code": "INTERNAL",
		"msg":  err.Error(),
	})
}

// FailValidation reports a malformed request body or query.
func FailValidation(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code": apperr.ValidationFailed.Code(),
		"msg":  msg,
	})
}
