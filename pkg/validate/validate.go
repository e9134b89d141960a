package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"quartz-storefront/internal/core/errs"
)

var (
	slugRe  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

	once sync.Once
	v    *validator.Validate
)

// Engine is the shared validator. It reads the `binding` tag so the same
// structs validate identically through gin and when called directly.
func Engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.SetTagName("binding")
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsPhone(fl.Field().String())
		})
	})
	return v
}

func IsSlug(s string) bool { return slugRe.MatchString(s) }

// IsPhone accepts E.164-ish numbers of at least ten characters.
func IsPhone(s string) bool { return len(s) >= 10 && phoneRe.MatchString(s) }

// Struct validates s and returns a ValidationFailed error naming the first
// offending field.
func Struct(s any) error {
	if err := Engine().Struct(s); err != nil {
		return Translate(err)
	}
	return nil
}

// Var validates a single value against tag.
func Var(field string, val any, tag string) error {
	if err := Engine().Var(val, tag); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return errs.Validation(field + " " + describe(ve[0]))
		}
		return errs.Validation(field + " is invalid")
	}
	return nil
}

// Translate turns binding and validator errors into ValidationFailed.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return errs.Wrap(errs.ValidationFailed, fieldName(fe)+" "+describe(fe), err)
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Wrap(errs.ValidationFailed, "invalid request body", err)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "slug":
		return "must contain only lowercase letters, numbers and hyphens"
	case "phone":
		return "must be a valid phone number"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}

type ginValidator struct{}

func (ginValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return Engine().Struct(obj)
}

func (ginValidator) Engine() any { return Engine() }

// InstallGin makes gin bind through Engine and reject unknown JSON fields.
func InstallGin() {
	binding.Validator = ginValidator{}
	binding.EnableDecoderDisallowUnknownFields = true
}
