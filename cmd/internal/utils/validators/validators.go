package validators

import (
	"github.com/go-playground/validator/v10"
	"nutricare/cmd/internal/domain/entity"
	"reflect"
	"strings"
	"time"
)

// Register wires the custom tags used by request structs and makes
// validation errors report json field names.
func Register(validate *validator.Validate) {
	validate.RegisterTagNameFunc(jsonFieldName)
	_ = validate.RegisterValidation("iso8601", IsIso8601)
	_ = validate.RegisterValidation("isodate", IsIsoDate)
	_ = validate.RegisterValidation("resource", IsResource)
	_ = validate.RegisterValidation("scope", IsScope)
}

func New() *validator.Validate {
	validate := validator.New()
	Register(validate)
	return validate
}

func IsIso8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

func IsIsoDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}

func IsResource(fl validator.FieldLevel) bool {
	return entity.Resource(fl.Field().String()).Valid()
}

func IsScope(fl validator.FieldLevel) bool {
	return entity.Scope(fl.Field().String()).Valid()
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
