package dto

type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	FirstPassword string `json:"first-password" binding:"required"`
	LastPassword  string `json:"second-password" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Role          string `json:"role" binding:"omitempty,oneof=student teacher"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateMaterialRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"max=500"`
	Author       string `json:"author" binding:"max=100"`
	MaterialType string `json:"material_type" binding:"required"`

	FileURL    string `json:"file_url"`
	BucketName string `json:"bucket_name"`
	ObjectName string `json:"object_name"`
	FileSize   int64  `json:"file_size"`
	FileType   string `json:"file_type"`
	YoutubeURL string `json:"youtube_url"`

	AccessType string `json:"access_type" binding:"omitempty,oneof=public private request-based"`
	AccessCode string `json:"access_code"`
}

// UpdateMaterialRequest is a partial patch; nil fields are left untouched.
type UpdateMaterialRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Author      *string `json:"author" binding:"omitempty,max=100"`

	FileURL    *string `json:"file_url"`
	YoutubeURL *string `json:"youtube_url"`
	FileSize   *int64  `json:"file_size"`
	FileType   *string `json:"file_type"`

	AccessType *string `json:"access_type" binding:"omitempty,oneof=public private request-based"`
	AccessCode *string `json:"access_code"`
}

type VerifyMaterialRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string `json:"reason" binding:"max=500"`
}

type RedeemCodeRequest struct {
	AccessCode string `json:"access_code" binding:"required"`
}

type MaterialListRequest struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	MaterialType string `form:"material_type"`
	AccessType   string `form:"access_type"`
	Status       string `form:"status"`
	Search       string `form:"search"`
	OrderBy      string `form:"order_by"`
	OrderDesc    bool   `form:"order_desc"`
}

type CreateAccessRequestRequest struct {
	Message string `json:"message" binding:"max=500"`
}

type RespondAccessRequestRequest struct {
	Action        string `json:"action" binding:"required,oneof=approve reject"`
	Message       string `json:"message" binding:"max=500"`
	ExpiresInDays *int   `json:"expires_in_days" binding:"omitempty,min=1,max=365"`
}

type StudentRequestsRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	OrderBy   string `form:"order_by"`
	OrderDesc bool   `form:"order_desc"`
}

type TeacherRequestsRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	Search    string `form:"search"`
	Period    string `form:"period"`
	OrderBy   string `form:"order_by"`
	OrderDesc bool   `form:"order_desc"`
}

type BookmarkListRequest struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	MaterialType string `form:"material_type"`
}

type NotificationListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

type SearchMaterialsRequest struct {
	Query        string `form:"query" binding:"required"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	MaterialType string `form:"material_type"`
	AccessType   string `form:"access_type"`
	OrderBy      string `form:"order_by"`
	OrderDesc    bool   `form:"order_desc"`
}
