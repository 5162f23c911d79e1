package dto

import (
	"io"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
)

type NewMedia struct {
	Parent    entity.Parent
	AthleteID *int64

	Name        string
	Description string
	Date        *time.Time
	Category    string

	MediaURL     string
	MediaType    string
	ThumbnailURL string
}

// MediaPatch carries a partial update. Omitted fields keep their value; a
// null Date clears the date, a null text field clears it to "".
type MediaPatch struct {
	Name        Optional[string]    `json:"name"`
	Description Optional[string]    `json:"description"`
	Date        Optional[time.Time] `json:"date"`
	Category    Optional[string]    `json:"category"`

	MediaURL     Optional[string] `json:"mediaUrl"`
	MediaType    Optional[string] `json:"mediaType"`
	ThumbnailURL Optional[string] `json:"thumbnailUrl"`
}

func (p MediaPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Description.Set && !p.Date.Set && !p.Category.Set &&
		!p.MediaURL.Set && !p.MediaType.Set && !p.ThumbnailURL.Set
}

// Apply returns a copy of m with the patch applied.
func (p MediaPatch) Apply(m entity.MediaAsset) entity.MediaAsset {
	if p.Name.Set {
		m.Name = p.Name.Value
	}
	if p.Description.Set {
		m.Description = p.Description.Value
	}
	if p.Date.Set {
		m.Date = p.Date.Ptr()
	}
	if p.Category.Set {
		m.Category = p.Category.Value
	}
	if p.MediaURL.Set {
		m.MediaURL = p.MediaURL.Value
	}
	if p.MediaType.Set {
		m.MediaType = p.MediaType.Value
	}
	if p.ThumbnailURL.Set {
		m.ThumbnailURL = p.ThumbnailURL.Value
	}
	if !m.IsVideo() {
		m.ThumbnailURL = ""
	}

	return m
}

type MediaFilter struct {
	Parent    entity.Parent
	AthleteID *int64
}

// IngestMedia is a server-side upload: the bytes pass through the API so a
// video thumbnail can be extracted before the record is written. Data is
// rewound after the thumbnail pass.
type IngestMedia struct {
	NewMedia

	FileName    string
	ContentType string
	Size        int64
	Data        io.ReadSeeker
}
