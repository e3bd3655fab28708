package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports field names by their json tag so messages match the request body
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindLocked:
		return http.StatusLocked
	case errs.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if msg == "" {
		msg = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeBody decodes a JSON request body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errs.Validation("invalid JSON body: %v", err)
	}
	return nil
}

// validateStruct runs struct tag validation and reports the first failing field
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return errs.Validation("%s is required", fe.Field())
		case "min", "gte":
			return errs.Validation("%s must be at least %s", fe.Field(), fe.Param())
		case "max", "lte":
			return errs.Validation("%s must be at most %s", fe.Field(), fe.Param())
		default:
			return errs.Validation("%s is invalid", fe.Field())
		}
	}
	return errs.Validation("%v", err)
}
