package entity

import (
	"strings"
	"time"
)

type Parent string

const (
	ParentGallery Parent = "gallery"
	ParentAthlete Parent = "athlete"
)

func ParseParent(s string) (Parent, bool) {
	switch Parent(strings.ToLower(strings.TrimSpace(s))) {
	case ParentGallery:
		return ParentGallery, true
	case ParentAthlete:
		return ParentAthlete, true
	default:
		return "", false
	}
}

// MediaAsset is a gallery item or a per-athlete media entry. The row owns the
// blob(s) behind MediaURL and, for videos, ThumbnailURL.
type MediaAsset struct {
	ID        int64  `json:"id"`
	Parent    Parent `json:"parent"`
	AthleteID *int64 `json:"athleteId,omitempty"`

	Name        string     `json:"name"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date,omitempty"`
	Category    string     `json:"category"`

	MediaURL     string `json:"mediaUrl"`
	MediaType    string `json:"mediaType"`
	ThumbnailURL string `json:"thumbnailUrl"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *MediaAsset) IsVideo() bool {
	return strings.HasPrefix(m.MediaType, "video/")
}

func (m *MediaAsset) IsImage() bool {
	return strings.HasPrefix(m.MediaType, "image/")
}

// ObjectURLs lists the blob URLs this row references: the primary object and,
// for videos only, a non-empty thumbnail.
func (m *MediaAsset) ObjectURLs() []string {
	urls := make([]string, 0, 2)

	if m.MediaURL != "" {
		urls = append(urls, m.MediaURL)
	}
	if m.IsVideo() && m.ThumbnailURL != "" {
		urls = append(urls, m.ThumbnailURL)
	}

	return urls
}
