package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxImageSize int64 = 10 * 1024 * 1024
	DefaultMaxVideoSize int64 = 200 * 1024 * 1024
)

// Limits caps multipart uploads by kind.
type Limits struct {
	MaxImageSize int64
	MaxVideoSize int64
}

func (l Limits) For(contentType string) int64 {
	if strings.HasPrefix(contentType, "video/") {
		return l.MaxVideoSize
	}

	return l.MaxImageSize
}

// Validator reports struct tag violations by their json field names.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct returns an error wrapping errs.ErrValidation when s breaks a rule.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, message(fe))
	}
	sort.Strings(msgs)

	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), errs.ErrValidation)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a url", fe.Field())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
