package dto

import "time"

// UploadAuthorization is a presigned single-object write. Issuing one creates
// nothing; PublicURL is what gets persisted once the upload and the metadata
// save both succeed.
type UploadAuthorization struct {
	UploadURL   string    `json:"uploadUrl"`
	PublicURL   string    `json:"mediaUrl"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type SlotUpload struct {
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// ImageInfo is what a decoded image header tells about an upload.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}
