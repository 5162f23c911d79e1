package v1

import (
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/validate"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/usecase"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
)

type V1 struct {
	media  usecase.MediaUseCase
	slot   usecase.SlotUseCase
	logger logger.Interface

	v      *validate.Validator
	limits validate.Limits
}
