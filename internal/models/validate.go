package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so error maps line up with request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	mustRegister("user_role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	mustRegister("vote_direction", func(fl validator.FieldLevel) bool {
		return VoteDirection(fl.Field().String()).Valid()
	})

	return v
}

// validateStruct runs the struct tags of req and turns failures into a
// field -> message map. messages overrides the text for "field.tag" keys.
func validateStruct(req interface{}, messages map[string]string) map[string]string {
	errs := make(map[string]string)

	err := validate.Struct(req)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			errs[field] = msg
			continue
		}
		errs[field] = defaultMessage(fe)
	}
	return errs
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return "Email is invalid"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
