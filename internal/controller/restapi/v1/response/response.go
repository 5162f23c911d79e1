package response

import (
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
)

type Error struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"mediaId is required"`
}

type UploadURL struct {
	Success   bool      `json:"success" example:"true"`
	UploadURL string    `json:"uploadUrl"`
	MediaURL  string    `json:"mediaUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Media struct {
	Success bool               `json:"success" example:"true"`
	Media   *entity.MediaAsset `json:"media"`
}

type MediaList struct {
	Success bool                 `json:"success" example:"true"`
	Media   []*entity.MediaAsset `json:"media"`
}

type SessionImage struct {
	Success bool                      `json:"success" example:"true"`
	Image   *entity.RegistrationImage `json:"image"`
}

type SessionImages struct {
	Success bool                        `json:"success" example:"true"`
	Images  []*entity.RegistrationImage `json:"images"`
}
