package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/objectkey"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
)

// Ingest uploads the file through the API and creates the record. Videos get
// a thumbnail first; when extraction fails the record is still created with
// an empty thumbnailUrl.
func (uc *MediaUseCase) Ingest(ctx context.Context, in dto.IngestMedia) (*entity.MediaAsset, error) {
	if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.ContentType) == "" || in.Data == nil {
		return nil, fmt.Errorf("MediaUseCase - Ingest: file is required: %w", errs.ErrValidation)
	}

	in.MediaType = in.ContentType
	in.MediaURL = ""
	in.ThumbnailURL = ""

	media, err := newAsset(in.NewMedia)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Ingest: %w", err)
	}

	var thumb []byte
	if media.IsVideo() {
		thumb, err = uc.extractThumbnail(ctx, in.Data)
		if err != nil {
			return nil, fmt.Errorf("MediaUseCase - Ingest: %w", err)
		}
	}

	key := objectkey.New(primaryPrefix(media.Parent), in.FileName)

	err = uc.blobRepo.Upload(ctx, key, in.Data, in.ContentType, in.Size)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Ingest - uc.blobRepo.Upload: %w: %w", errs.ErrStorage, err)
	}
	written := []string{key}
	media.MediaURL = uc.blobRepo.PublicURL(key)

	if thumb != nil {
		thumbKey := objectkey.New(thumbnailPrefix(media.Parent), thumbnailName(in.FileName))

		err = uc.blobRepo.Upload(ctx, thumbKey, bytes.NewReader(thumb), "image/jpeg", int64(len(thumb)))
		if err != nil {
			uc.logger.Warn("MediaUseCase - Ingest - thumbnail upload failed, continuing without: %v", err)
		} else {
			written = append(written, thumbKey)
			media.ThumbnailURL = uc.blobRepo.PublicURL(thumbKey)
		}
	}

	err = uc.mediaRepo.Create(ctx, media)
	if err != nil {
		// the row never existed, so the objects just written are orphans
		if delErr := uc.cleanup.DeleteObjects(ctx, written); delErr != nil {
			uc.logger.Error(delErr, "MediaUseCase - Ingest - uc.cleanup.DeleteObjects")
		}
		return nil, fmt.Errorf("MediaUseCase - Ingest - uc.mediaRepo.Create: %w", err)
	}

	return media, nil
}

// extractThumbnail returns nil when extraction fails. Only failing to rewind
// data is an error.
func (uc *MediaUseCase) extractThumbnail(ctx context.Context, data io.ReadSeeker) ([]byte, error) {
	thumb, err := uc.thumbnails.Extract(ctx, data)
	if err != nil {
		uc.logger.Warn("MediaUseCase - Ingest - uc.thumbnails.Extract: %v", err)
		thumb = nil
	}

	if _, err := data.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("data.Seek: %w", err)
	}

	return thumb, nil
}

func thumbnailName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))

	return strings.TrimSuffix(base, path.Ext(base)) + ".jpg"
}
