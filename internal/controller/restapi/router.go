package restapi

import (
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/config"
	v1 "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/validate"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title Club media
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, media usecase.MediaUseCase, slot usecase.SlotUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Metrics
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// K8s probe
	app.Get("/healthz", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) })

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewRoutes(apiV1Group, media, slot, l, validate.Limits{
			MaxImageSize: cfg.Upload.MaxImageSize,
			MaxVideoSize: cfg.Upload.MaxVideoSize,
		})
	}
}
