package v1

import (
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/validate"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewRoutes(apiV1Group fiber.Router, media usecase.MediaUseCase, slot usecase.SlotUseCase, l logger.Interface, limits validate.Limits) {
	r := &V1{media: media, slot: slot, logger: l, v: validate.New(), limits: limits}

	{
		// Media
		apiV1Group.Post("/media/:parent/upload-url", r.issueUploadURL)
		apiV1Group.Post("/media/:parent/file", r.ingestMedia)
		apiV1Group.Post("/media/:parent", r.createMedia)
		apiV1Group.Get("/media/:parent", r.getMedia)
		apiV1Group.Put("/media/:parent", r.updateMedia)
		apiV1Group.Delete("/media/:parent", r.deleteMedia)

		// Registration schedule images
		apiV1Group.Get("/registration/session-image", r.listSessionImages)
		apiV1Group.Post("/registration/session-image", r.uploadSessionImage)
		apiV1Group.Patch("/registration/session-image", r.sessionImageAction)
		apiV1Group.Delete("/registration/session-image", r.deleteSessionImage)
	}
}
