package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse es lo único que ve el cliente: {"message": "..."}.
type errorResponse struct {
	Message string `json:"message"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{Message: appErr.Message})
}
