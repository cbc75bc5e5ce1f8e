package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// requestValidator checks request DTOs, reporting fields by their json names.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Validate returns the message of the first failing field, or "" when valid.
func (v *requestValidator) Validate(i any) string {
	err := v.validate.Struct(i)
	if err == nil {
		return ""
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return err.Error()
	}
	return msgForTag(fieldErrs[0])
}

func msgForTag(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "dive":
		return fmt.Sprintf("%s is invalid", field)
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}

// decodeRequest reads a JSON body into dst and validates it. It writes the
// 400 response itself and reports whether the handler should continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, v *requestValidator, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if msg := v.Validate(dst); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}
