package media

import (
	"fmt"
	"strings"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

const (
	PrefixGallery           = "gallery/"
	PrefixGalleryThumbnails = "gallery/thumbnails/"
	PrefixAthlete           = "athlete/media/"
	PrefixAthleteThumbnails = "athlete/media/thumbnails/"
	PrefixResources         = "resources/"
)

var allowedPrefixes = map[string]bool{
	PrefixGallery:           true,
	PrefixGalleryThumbnails: true,
	PrefixAthlete:           true,
	PrefixAthleteThumbnails: true,
	PrefixResources:         true,
}

func primaryPrefix(parent entity.Parent) string {
	if parent == entity.ParentAthlete {
		return PrefixAthlete
	}
	return PrefixGallery
}

func thumbnailPrefix(parent entity.Parent) string {
	if parent == entity.ParentAthlete {
		return PrefixAthleteThumbnails
	}
	return PrefixGalleryThumbnails
}

// resolvePrefix defaults an empty prefix to the parent's primary namespace and
// rejects anything outside the allow-list.
func resolvePrefix(parent entity.Parent, prefix string) (string, error) {
	prefix = strings.TrimSpace(strings.TrimPrefix(prefix, "/"))
	if prefix == "" {
		return primaryPrefix(parent), nil
	}

	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	if !allowedPrefixes[prefix] {
		return "", fmt.Errorf("prefix %q is not allowed: %w", prefix, errs.ErrValidation)
	}

	return prefix, nil
}
