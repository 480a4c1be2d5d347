package stubapi

import (
	"encoding/json"
	"net/http"
	"strings"

	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: status < http.StatusBadRequest, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.New(pkgerrors.CodeInternal, "internal error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	message := typed.Message()
	if message == "" {
		message = meta.PublicMessage
	}
	body := envelope{Success: false, Message: message}
	if meta.DetailsAllowed && typed.Details() != nil {
		body.Data = typed.Details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(meta.HTTPStatus)
	_ = json.NewEncoder(w).Encode(body)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
