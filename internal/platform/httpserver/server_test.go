package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	incidentservice "maestro/contexts/internal-ops/incident-service"
	orderengine "maestro/contexts/order-fulfillment/order-engine"
)

func newTestServer(internalKey string, incidentFeed bool) *Server {
	return New(
		orderengine.NewInMemoryModule(nil),
		incidentservice.NewInMemoryModule(nil),
		internalKey,
		incidentFeed,
		nil,
		"",
	)
}

func serve(s *Server, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	s.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestClientRoutesRequireUserHeader(t *testing.T) {
	s := newTestServer("secret", true)

	resp := serve(s, http.MethodPost, "/v1/orders", `{"type":"ads","title":"Campanha"}`, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing X-User-Id should be 401, got %d", resp.Code)
	}

	resp = serve(s, http.MethodPost, "/v1/orders", `{"type":"ads","title":"Campanha","payload":{}}`, map[string]string{
		"X-User-Id": "user-1",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create order = %d, want 201: %s", resp.Code, resp.Body.String())
	}
}

func TestInternalRoutesRequireKey(t *testing.T) {
	s := newTestServer("secret", true)

	if resp := serve(s, http.MethodGet, "/internal/workers", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401, got %d", resp.Code)
	}
	if resp := serve(s, http.MethodGet, "/internal/workers", "", map[string]string{
		"X-Internal-Key": "wrong",
	}); resp.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key should be 401, got %d", resp.Code)
	}
	if resp := serve(s, http.MethodGet, "/internal/workers", "", map[string]string{
		"X-Internal-Key": "secret",
	}); resp.Code != http.StatusOK {
		t.Fatalf("valid key = %d, want 200: %s", resp.Code, resp.Body.String())
	}
}

func TestEmptyInternalKeyClosesSurface(t *testing.T) {
	s := newTestServer("", true)

	resp := serve(s, http.MethodGet, "/internal/workers", "", map[string]string{
		"X-Internal-Key": "",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("empty configured key must close the surface, got %d", resp.Code)
	}
}

func TestIncidentFeedToggle(t *testing.T) {
	body := `{"message":"TypeError: cannot read property","context":{"stage":"checkout"}}`

	enabled := newTestServer("secret", true)
	if resp := serve(enabled, http.MethodPost, "/v1/debug/client-events", body, nil); resp.Code != http.StatusOK {
		t.Fatalf("enabled feed = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	if resp := serve(enabled, http.MethodGet, "/internal/incidents", "", map[string]string{
		"X-Internal-Key": "secret",
	}); resp.Code != http.StatusOK {
		t.Fatalf("enabled incidents list = %d, want 200", resp.Code)
	}

	disabled := newTestServer("secret", false)
	if resp := serve(disabled, http.MethodPost, "/v1/debug/client-events", body, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("disabled feed must not mount the route, got %d", resp.Code)
	}
	if resp := serve(disabled, http.MethodGet, "/internal/incidents", "", map[string]string{
		"X-Internal-Key": "secret",
	}); resp.Code != http.StatusNotFound {
		t.Fatalf("disabled incidents list must not mount, got %d", resp.Code)
	}
}
