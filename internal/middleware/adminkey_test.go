package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func adminProbe(t *testing.T, configured, supplied string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/search/reindex/tenant", nil)
	if supplied != "" {
		req.Header.Set(AdminKeyHeader, supplied)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := AdminKeyMiddleware(configured)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec
}

func TestAdminKeyMiddleware(t *testing.T) {
	if rec := adminProbe(t, "secret", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("matching key: status = %d", rec.Code)
	}
	if rec := adminProbe(t, "secret", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d", rec.Code)
	}
	if rec := adminProbe(t, "secret", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: status = %d", rec.Code)
	}
}
