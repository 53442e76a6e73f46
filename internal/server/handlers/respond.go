package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/tripsync/pkg/api"
)

// WriteData пишет успешный конверт {success: true, data}
func WriteData(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	resp, err := api.NewResponse(data)
	if err != nil {
		logger.Error("Failed to encode response data", "error", err)
		WriteError(w, logger, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeJSON(w, logger, status, resp)
}

// WriteMessage пишет успешный конверт только с сообщением
func WriteMessage(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, api.Response{Success: true, Message: message})
}

// WriteError пишет конверт ошибки {success: false, message, error}
func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	writeJSON(w, logger, status, api.ErrorResponse{
		Success: false,
		Message: message,
		Error:   code,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
