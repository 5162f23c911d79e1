package v1

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/request"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/response"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// @Summary 	Authorize a direct upload
// @Description Returns a presigned PUT url and the public url the object will have. Nothing is stored until the client saves the metadata.
// @Tags 		media
// @Accept 		json
// @Produce 	json
// @Param 		parent path  string true  "Parent" Enums(gallery, athlete)
// @Param 		prefix query string false "Key prefix" Enums(gallery/, gallery/thumbnails/, athlete/media/, athlete/media/thumbnails/, resources/)
// @Param 		body   body  request.UploadURL true "File"
// @Success 	200 {object} response.UploadURL
// @Failure 	400 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/v1/media/{parent}/upload-url [post]
func (r *V1) issueUploadURL(ctx *fiber.Ctx) error {
	parent, ok := entity.ParseParent(ctx.Params("parent"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "unknown parent")
	}

	var body request.UploadURL
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := r.v.Struct(body); err != nil {
		return r.fail(ctx, err, "restapi - v1 - issueUploadURL")
	}

	auth, err := r.media.IssueUpload(ctx.UserContext(), parent, utils.CopyString(ctx.Query("prefix")), body.FileName, body.FileType)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - issueUploadURL")
	}

	return ctx.JSON(response.UploadURL{
		Success:   true,
		UploadURL: auth.UploadURL,
		MediaURL:  auth.PublicURL,
		Key:       auth.Key,
		ExpiresAt: auth.ExpiresAt,
	})
}

// @Summary 	Save media metadata
// @Description Persists a record for an object uploaded through an upload url.
// @Tags 		media
// @Accept 		json
// @Produce 	json
// @Param 		parent path string true "Parent" Enums(gallery, athlete)
// @Param 		body   body request.CreateMedia true "Metadata"
// @Success 	200 {object} response.Media
// @Failure 	400 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/v1/media/{parent} [post]
func (r *V1) createMedia(ctx *fiber.Ctx) error {
	parent, ok := entity.ParseParent(ctx.Params("parent"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "unknown parent")
	}

	var body request.CreateMedia
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := r.v.Struct(body); err != nil {
		return r.fail(ctx, err, "restapi - v1 - createMedia")
	}

	in, err := body.ToNewMedia(parent)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - createMedia")
	}

	media, err := r.media.Create(ctx.UserContext(), in)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - createMedia")
	}

	return ctx.JSON(response.Media{Success: true, Media: media})
}

// @Summary 	Upload media through the API
// @Description Stores the file and its record in one call. Videos get a JPEG thumbnail; when extraction fails the record is saved without one.
// @Tags 		media
// @Accept 		mpfd
// @Produce 	json
// @Param 		parent      path     string true  "Parent" Enums(gallery, athlete)
// @Param 		file        formData file   true  "Image or video"
// @Param 		name        formData string false "Name"
// @Param 		description formData string false "Description"
// @Param 		category    formData string false "Category"
// @Param 		date        formData string false "YYYY-MM-DD"
// @Param 		athleteId   formData int    false "Athlete (required for athlete media)"
// @Success 	200 {object} response.Media
// @Failure 	400 {object} response.Error
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	500 {object} response.Error
// @Router 		/v1/media/{parent}/file [post]
func (r *V1) ingestMedia(ctx *fiber.Ctx) error {
	parent, ok := entity.ParseParent(ctx.Params("parent"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "unknown parent")
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	f, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - ingestMedia - file.Open")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "unreadable file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		r.logger.Error(err, "restapi - v1 - ingestMedia - f.Seek")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with reading the file")
	}

	contentType := baseType(mt.String())
	if limit := r.limits.For(contentType); file.Size > limit {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size cant be more than %d bytes", limit))
	}

	athleteID, err := optionalID(ctx.FormValue("athleteId"), "athleteId")
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - ingestMedia")
	}

	date, err := request.ParseDate(ctx.FormValue("date"))
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - ingestMedia")
	}

	media, err := r.media.Ingest(ctx.UserContext(), dto.IngestMedia{
		NewMedia: dto.NewMedia{
			Parent:      parent,
			AthleteID:   athleteID,
			Name:        utils.CopyString(ctx.FormValue("name")),
			Description: utils.CopyString(ctx.FormValue("description")),
			Date:        date,
			Category:    utils.CopyString(ctx.FormValue("category")),
		},
		FileName:    file.Filename,
		ContentType: contentType,
		Size:        file.Size,
		Data:        f,
	})
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - ingestMedia")
	}

	return ctx.JSON(response.Media{Success: true, Media: media})
}

// @Summary 	Get media
// @Description With mediaId returns one record, otherwise lists the parent's records newest first.
// @Tags 		media
// @Produce 	json
// @Param 		parent    path  string true  "Parent" Enums(gallery, athlete)
// @Param 		mediaId   query int    false "Media id"
// @Param 		athleteId query int    false "Only this athlete's media"
// @Success 	200 {object} response.MediaList
// @Failure 	400 {object} response.Error
// @Failure 	404 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/v1/media/{parent} [get]
func (r *V1) getMedia(ctx *fiber.Ctx) error {
	parent, ok := entity.ParseParent(ctx.Params("parent"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "unknown parent")
	}

	if ctx.Query("mediaId") != "" {
		id, err := mediaID(ctx)
		if err != nil {
			return r.fail(ctx, err, "restapi - v1 - getMedia")
		}

		media, err := r.media.Get(ctx.UserContext(), parent, id)
		if err != nil {
			return r.fail(ctx, err, "restapi - v1 - getMedia")
		}

		return ctx.JSON(response.Media{Success: true, Media: media})
	}

	athleteID, err := optionalID(ctx.Query("athleteId"), "athleteId")
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - getMedia")
	}

	items, err := r.media.List(ctx.UserContext(), dto.MediaFilter{Parent: parent, AthleteID: athleteID})
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - getMedia")
	}

	return ctx.JSON(response.MediaList{Success: true, Media: items})
}

// @Summary 	Update media
// @Description Applies only the fields present in the body. A null date clears it. Objects the record stops referencing are deleted.
// @Tags 		media
// @Accept 		json
// @Produce 	json
// @Param 		parent  path  string true "Parent" Enums(gallery, athlete)
// @Param 		mediaId query int    true "Media id"
// @Param 		body    body  request.UpdateMedia true "Fields to change"
// @Success 	200 {object} response.Media
// @Failure 	400 {object} response.Error
// @Failure 	404 {object} response.Error
// @Failure 	409 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/v1/media/{parent} [put]
func (r *V1) updateMedia(ctx *fiber.Ctx) error {
	parent, ok := entity.ParseParent(ctx.Params("parent"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "unknown parent")
	}

	id, err := mediaID(ctx)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - updateMedia")
	}

	var body request.UpdateMedia
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	patch, err := body.ToPatch()
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - updateMedia")
	}

	media, err := r.media.Update(ctx.UserContext(), parent, id, patch)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - updateMedia")
	}

	return ctx.JSON(response.Media{Success: true, Media: media})
}

// @Summary 	Delete media
// @Description Deletes the record's objects, then the record. When an object delete fails the record is kept.
// @Tags 		media
// @Produce 	json
// @Param 		parent  path  string true "Parent" Enums(gallery, athlete)
// @Param 		mediaId query int    true "Media id"
// @Success 	200 {object} response.Media
// @Failure 	400 {object} response.Error
// @Failure 	404 {object} response.Error
// @Failure 	409 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/v1/media/{parent} [delete]
func (r *V1) deleteMedia(ctx *fiber.Ctx) error {
	parent, ok := entity.ParseParent(ctx.Params("parent"))
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "unknown parent")
	}

	id, err := mediaID(ctx)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - deleteMedia")
	}

	media, err := r.media.Delete(ctx.UserContext(), parent, id)
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - deleteMedia")
	}

	return ctx.JSON(response.Media{Success: true, Media: media})
}

func mediaID(ctx *fiber.Ctx) (int64, error) {
	raw := ctx.Query("mediaId")
	if raw == "" {
		return 0, fmt.Errorf("mediaId is required: %w", errs.ErrValidation)
	}

	id, err := optionalID(raw, "mediaId")
	if err != nil {
		return 0, err
	}

	return *id, nil
}

func optionalID(raw, field string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer: %w", field, errs.ErrValidation)
	}

	return &id, nil
}

// baseType drops parameters such as "; charset=utf-8".
func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return strings.TrimSpace(contentType)
}
