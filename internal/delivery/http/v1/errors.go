package v1

import (
	"errors"
	"net/http"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
	"catalog-backend/pkg/utils"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

// writeDomainError maps usecase errors onto HTTP status codes. Unexpected
// errors are logged and reported without detail.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, domain.ErrValidation):
		utils.WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		utils.WriteJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		logger.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		utils.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	utils.WriteJSON(w, http.StatusBadRequest, errorBody{Error: message})
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, domain.Response{Success: true, Data: data})
}

// pathID reads a positive integer path parameter; it writes 400 and returns false otherwise.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, ok := utils.ParseID(r.PathValue(name))
	if !ok {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
