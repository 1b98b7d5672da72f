package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(origins []string, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	CORS(origins)(okHandler()).ServeHTTP(rec, req)
	return rec
}

func TestCORS_WildcardNeverAllowsCredentials(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}, {"https://shop.example", "*"}} {
		rec := corsRequest(origins, "https://evil.example")

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "%v", origins)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"), "%v", origins)
	}
}

func TestCORS_ExplicitOriginsAllowCredentials(t *testing.T) {
	origins := []string{"https://shop.example"}

	rec := corsRequest(origins, "https://shop.example")
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = corsRequest(origins, "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
