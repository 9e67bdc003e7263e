package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"textile-store/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code, code and
// message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// respondError maps err to a status code and writes it. Errors that are not
// domain errors are logged and reported as a generic internal error.
func respondError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		return
	}

	status := statusFor(domainErr.Code)
	logger.Debug().Str("code", domainErr.Code).Int("status", status).Msg(domainErr.Message)
	writeError(w, status, domainErr.Code, domainErr.Message)
}

// statusFor returns the HTTP status for a domain error code.
func statusFor(code string) int {
	switch code {
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound, model.ErrCodeRouteNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition, model.ErrCodeConcurrentUpdate:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeInvalidJSON,
		model.ErrCodeInvalidForm,
		model.ErrCodeMissingField,
		model.ErrCodeInvalidField,
		model.ErrCodeInvalidImage,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidStatus:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// APINotFound answers API paths that match no route.
func APINotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, model.ErrCodeRouteNotFound, "No API endpoint at "+r.URL.Path)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is too large")
	}
	return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is not valid JSON")
}
