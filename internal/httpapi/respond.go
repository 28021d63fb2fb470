package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/digkill/PhotoStudio/internal/service"
)

const maxJSONBody = 16 << 20

var validate = newValidator()

var errRateLimited = errors.New("too many generation requests, slow down")

type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []fieldError `json:"details,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// requestError is a malformed or invalid request body.
type requestError struct {
	msg     string
	details []fieldError
}

func (e *requestError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes and stable error codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: reqErr.msg, Details: reqErr.details})
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: err.Error()})
	case errors.Is(err, service.ErrInsufficientBalance):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{Code: "INSUFFICIENT_BALANCE", Message: service.ErrInsufficientBalance.Error()})
	case errors.Is(err, service.ErrGenerationFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "GENERATION_FAILED", Message: service.ErrGenerationFailed.Error()})
	case errors.Is(err, service.ErrDuplicateTransaction):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "DUPLICATE_TRANSACTION", Message: err.Error()})
	case errors.Is(err, service.ErrRechargeNotPending):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "RECHARGE_NOT_PENDING", Message: err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "EMAIL_TAKEN", Message: err.Error()})
	case errors.Is(err, service.ErrAuthFailed):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "AUTH_FAILED", Message: err.Error()})
	case errors.Is(err, service.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{Code: "ACCESS_DENIED", Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, service.ErrStorageDisabled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Code: "STORAGE_DISABLED", Message: err.Error()})
	case errors.Is(err, errRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Code: "RATE_LIMITED", Message: err.Error()})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "something went wrong"})
	}
}

// decodeJSON reads a JSON body into v and runs struct validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &requestError{msg: "request body is empty"}
		}
		return &requestError{msg: fmt.Sprintf("invalid json: %v", err)}
	}
	return validateRequest(v)
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{msg: err.Error()}
	}
	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldError{Field: fe.Field(), Message: fieldMessage(fe), Type: fe.Tag()})
	}
	return &requestError{msg: "invalid request data", details: details}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return "Must be a UUID"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gte", "lte":
		return "Value is out of range"
	default:
		return "Invalid value"
	}
}
