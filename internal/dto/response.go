package dto

import "StudyVault/model"

// UploadResponse describes a stored material file.
type UploadResponse struct {
	FileURL    string `json:"file_url"`
	BucketName string `json:"bucket_name"`
	ObjectName string `json:"object_name"`
	FileSize   int64  `json:"file_size"`
	FileType   string `json:"file_type"`
}

// RedeemResult is the outcome of an access-code redemption. A wrong code is
// a result, not an error; no state changes on mismatch.
type RedeemResult struct {
	HasAccess bool            `json:"has_access"`
	Message   string          `json:"message"`
	Material  *model.Material `json:"material,omitempty"`
}

// AccessStatus reports how a user stands with respect to a material.
type AccessStatus struct {
	HasAccess      bool                 `json:"has_access"`
	RequestStatus  string               `json:"request_status,omitempty"`
	AccessType     string               `json:"access_type"`
	IsUploader     bool                 `json:"is_uploader"`
	RequestDetails *model.AccessRequest `json:"request_details,omitempty"`
}

// DownloadResult carries either a presigned file URL or a video watch URL.
type DownloadResult struct {
	DownloadURL string          `json:"download_url,omitempty"`
	WatchURL    string          `json:"watch_url,omitempty"`
	Material    *model.Material `json:"material"`
}

type AdminStats struct {
	Users struct {
		Total    int64 `json:"total"`
		Teachers int64 `json:"teachers"`
		Students int64 `json:"students"`
	} `json:"users"`
	Materials struct {
		Total    int64 `json:"total"`
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
		Rejected int64 `json:"rejected"`
	} `json:"materials"`
	Requests struct {
		Total   int64 `json:"total"`
		Pending int64 `json:"pending"`
	} `json:"requests"`
	Engagement struct {
		TotalViews     int64 `json:"total_views"`
		TotalDownloads int64 `json:"total_downloads"`
		StorageBytes   int64 `json:"storage_bytes"`
	} `json:"engagement"`
}

type TeacherStats struct {
	Materials struct {
		Total    int64 `json:"total"`
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
		Rejected int64 `json:"rejected"`
	} `json:"materials"`
	Requests struct {
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
		Rejected int64 `json:"rejected"`
	} `json:"requests"`
	Engagement struct {
		TotalViews     int64 `json:"total_views"`
		TotalDownloads int64 `json:"total_downloads"`
	} `json:"engagement"`
}

type StudentStats struct {
	Requests struct {
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
		Rejected int64 `json:"rejected"`
	} `json:"requests"`
	Bookmarks         int64 `json:"bookmarks"`
	AccessedMaterials int64 `json:"accessed_materials"`
}
