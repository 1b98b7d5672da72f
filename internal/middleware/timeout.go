package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-market-auth/internal/model"
	"go-market-auth/pkg/apierror"
)

const defaultRequestTimeout = 15 * time.Second

// Timeout bounds handler execution. Handlers that overrun get a 503 with the
// standard error envelope instead of their partial output.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	apiErr := apierror.RequestTimeout()
	body, err := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: apiErr.Code, Message: apiErr.Message},
	})
	if err != nil {
		body = []byte(`{"success":false}`)
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
