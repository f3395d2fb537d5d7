package dto

// MediaTempMetadata media:temp 中记录的未认领上传
type MediaTempMetadata struct {
	Bucket    string `json:"bucket"`
	MimeType  string `json:"mime_type"`
	CreatedAt int64  `json:"created_at"`
}

type UploadReq struct {
	Bucket string `form:"bucket" binding:"required"`
	Path   string `form:"path" binding:"required"`
}

type UploadResultDTO struct {
	URL string `json:"url"`
}
