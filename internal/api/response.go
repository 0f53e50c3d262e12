package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shivankMERNPro/MediaSense-AI/internal/filestore"
	"github.com/shivankMERNPro/MediaSense-AI/internal/ingest"
	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// Response is the JSON envelope of every API answer
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *Response) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		status = http.StatusInternalServerError
		data, _ = json.Marshal(&Response{
			Code:    status,
			Message: "failed to encode response",
			Error:   err.Error(),
		})
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, &Response{Code: status, Message: message, Data: data})
}

// respondError maps err to a status code and sends it in the envelope
func respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}

	respondJSON(w, status, &Response{
		Code:    status,
		Message: message,
		Error:   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrMissingOwner):
		return http.StatusUnauthorized
	case errors.Is(err, filestore.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, types.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, types.ErrEmptyQuery),
		errors.Is(err, types.ErrInvalidMedia),
		errors.Is(err, types.ErrInvalidStatus),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrReprocessInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errBadRequest marks malformed client input
var errBadRequest = errors.New("bad request")
