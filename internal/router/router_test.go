package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		check    func(ctx context.Context) error
		wantCode int
		wantBody string
	}{
		{name: "no check", check: nil, wantCode: http.StatusOK, wantBody: "ready"},
		{name: "healthy", check: func(context.Context) error { return nil }, wantCode: http.StatusOK, wantBody: "ready"},
		{
			name:     "store down",
			check:    func(context.Context) error { return errors.New("connection refused") },
			wantCode: http.StatusServiceUnavailable,
			wantBody: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			readiness(tt.check).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}
