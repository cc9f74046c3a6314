package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
	"stockyard/pkg/logger"
)

// stubValidator accepts any bearer token and returns a fixed actor.
type stubValidator struct {
	actor *security.Actor
}

func (v *stubValidator) ValidateToken(string) (*security.Actor, error) {
	return v.actor, nil
}

func newTestRouter(caps ...security.Capability) http.Handler {
	return NewRouter(RouterConfig{
		Logger: logger.Default(),
		TokenValidator: &stubValidator{actor: &security.Actor{
			ID:           id.New(),
			Name:         "tester",
			Capabilities: caps,
		}},
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_MutatingRoutesRequireCapability(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"create location", http.MethodPost, "/api/v1/locations"},
		{"delete location", http.MethodDelete, "/api/v1/locations/" + id.New().String()},
		{"adjust stock", http.MethodPost, "/api/v1/stock/adjust"},
		{"create transfer", http.MethodPost, "/api/v1/transfers"},
		{"sign transfer", http.MethodPost, "/api/v1/transfers/" + id.New().String() + "/sign"},
		{"create order", http.MethodPost, "/api/v1/purchase-orders"},
		{"approve order", http.MethodPost, "/api/v1/purchase-orders/" + id.New().String() + "/approve"},
		{"issue order", http.MethodPost, "/api/v1/purchase-orders/" + id.New().String() + "/issue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.path, `{}`)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Contains(t, rec.Body.String(), "FORBIDDEN")
		})
	}
}

func TestRouter_CapabilityAdmitsRequest(t *testing.T) {
	router := newTestRouter(security.CapCreateTransfer)

	// An empty body fails binding, proving the request got past the
	// capability gate into the handler.
	rec := doRequest(t, router, http.MethodPost, "/api/v1/transfers", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}
