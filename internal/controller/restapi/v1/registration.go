package v1

import (
	"fmt"
	"io"
	"net/http"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/request"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/response"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// @Summary 	List registration images
// @Tags 		registration
// @Produce 	json
// @Success 	200 {object} response.SessionImages
// @Failure 	500 {object} response.Error
// @Router 		/v1/registration/session-image [get]
func (r *V1) listSessionImages(ctx *fiber.Ctx) error {
	images, err := r.slot.List(ctx.UserContext())
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - listSessionImages")
	}

	return ctx.JSON(response.SessionImages{Success: true, Images: images})
}

// @Summary 	Upload a registration image
// @Description Puts the image into the slot, replacing whatever was there.
// @Tags 		registration
// @Accept 		mpfd
// @Produce 	json
// @Param 		slot  formData string true  "Slot" Enums(current, next, camp)
// @Param 		image formData file   true  "Image"
// @Param 		title formData string false "Title"
// @Success 	200 {object} response.SessionImage
// @Failure 	400 {object} response.Error
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	500 {object} response.Error
// @Router 		/v1/registration/session-image [post]
func (r *V1) uploadSessionImage(ctx *fiber.Ctx) error {
	rawSlot := ctx.FormValue("slot")
	if rawSlot == "" {
		return errorResponse(ctx, http.StatusBadRequest, "slot is required")
	}

	slot, ok := entity.ParseSlot(rawSlot)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "slot must be one of [current next camp]")
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "image must be a file")
	}

	if file.Size > r.limits.MaxImageSize {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size cant be more than %d bytes", r.limits.MaxImageSize))
	}

	f, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadSessionImage - file.Open")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadSessionImage - io.ReadAll")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with reading the file")
	}

	img, err := r.slot.Upload(ctx.UserContext(), slot, dto.SlotUpload{
		Title:       utils.CopyString(ctx.FormValue("title")),
		FileName:    file.Filename,
		ContentType: baseType(mimetype.Detect(data).String()),
		Size:        int64(len(data)),
		Data:        data,
	})
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - uploadSessionImage")
	}

	return ctx.JSON(response.SessionImage{Success: true, Image: img})
}

// @Summary 	Run a slot transition
// @Description promote-next moves the next image into current and deletes the old current image.
// @Tags 		registration
// @Accept 		json
// @Produce 	json
// @Param 		body body request.SessionImageAction true "Action"
// @Success 	200 {object} response.SessionImage
// @Failure 	400 {object} response.Error
// @Failure 	404 {object} response.Error "No next image"
// @Failure 	409 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/v1/registration/session-image [patch]
func (r *V1) sessionImageAction(ctx *fiber.Ctx) error {
	var body request.SessionImageAction
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := r.v.Struct(body); err != nil {
		return r.fail(ctx, err, "restapi - v1 - sessionImageAction")
	}

	img, err := r.slot.PromoteNext(ctx.UserContext())
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - sessionImageAction")
	}

	return ctx.JSON(response.SessionImage{Success: true, Image: img})
}

// @Summary 	Empty a slot
// @Tags 		registration
// @Accept 		json
// @Produce 	json
// @Param 		body body request.DeleteSessionImage true "Slot"
// @Success 	200 {object} response.SessionImage
// @Failure 	400 {object} response.Error
// @Failure 	404 {object} response.Error "Slot is empty"
// @Failure 	500 {object} response.Error
// @Router 		/v1/registration/session-image [delete]
func (r *V1) deleteSessionImage(ctx *fiber.Ctx) error {
	var body request.DeleteSessionImage
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := r.v.Struct(body); err != nil {
		return r.fail(ctx, err, "restapi - v1 - deleteSessionImage")
	}

	img, err := r.slot.Delete(ctx.UserContext(), entity.Slot(body.Slot))
	if err != nil {
		return r.fail(ctx, err, "restapi - v1 - deleteSessionImage")
	}

	return ctx.JSON(response.SessionImage{Success: true, Image: img})
}
