package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

const ActionPromoteNext = "promote-next"

type UploadURL struct {
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType" validate:"required"`
}

type CreateMedia struct {
	AthleteID    *int64 `json:"athleteId" validate:"omitempty,gt=0"`
	Name         string `json:"name" validate:"max=255"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Category     string `json:"category" validate:"max=128"`
	MediaURL     string `json:"mediaUrl" validate:"omitempty,url"`
	MediaType    string `json:"mediaType"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
}

func (r CreateMedia) ToNewMedia(parent entity.Parent) (dto.NewMedia, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return dto.NewMedia{}, err
	}

	return dto.NewMedia{
		Parent:       parent,
		AthleteID:    r.AthleteID,
		Name:         r.Name,
		Description:  r.Description,
		Date:         date,
		Category:     r.Category,
		MediaURL:     r.MediaURL,
		MediaType:    r.MediaType,
		ThumbnailURL: r.ThumbnailURL,
	}, nil
}

// UpdateMedia keeps the date as text so both "2024-05-01" and RFC 3339
// values are accepted; "" and null both clear it.
type UpdateMedia struct {
	Name         dto.Optional[string] `json:"name"`
	Description  dto.Optional[string] `json:"description"`
	Date         dto.Optional[string] `json:"date"`
	Category     dto.Optional[string] `json:"category"`
	MediaURL     dto.Optional[string] `json:"mediaUrl"`
	MediaType    dto.Optional[string] `json:"mediaType"`
	ThumbnailURL dto.Optional[string] `json:"thumbnailUrl"`
}

func (r UpdateMedia) ToPatch() (dto.MediaPatch, error) {
	patch := dto.MediaPatch{
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		MediaURL:     r.MediaURL,
		MediaType:    r.MediaType,
		ThumbnailURL: r.ThumbnailURL,
	}

	if r.Date.Set {
		date, err := ParseDate(r.Date.Value)
		if err != nil {
			return dto.MediaPatch{}, err
		}

		if date == nil {
			patch.Date = dto.Null[time.Time]()
		} else {
			patch.Date = dto.Some(*date)
		}
	}

	return patch, nil
}

type SessionImageAction struct {
	Action string `json:"action" validate:"required,oneof=promote-next"`
}

type DeleteSessionImage struct {
	Slot string `json:"slot" validate:"required,oneof=current next camp"`
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp. Blank input
// means no date.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339: %w", s, errs.ErrValidation)
}
