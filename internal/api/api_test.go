package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalRule = `{
  "meta": {"name": "t", "author": "t", "version": "1", "mediaType": "book", "domain": "example.com"},
  "detail": {
    "urlTemplate": "https://example.com/b/{{ detail_url }}",
    "fields": {"book": {
      "title": {"steps": [{"kind": "css", "css": ".t"}, {"kind": "index", "index": {"single": 0}}]},
      "author": {"steps": [{"kind": "css", "css": ".a"}, {"kind": "index", "index": {"single": 0}}]}
    }}
  },
  "search": {
    "urlTemplate": "https://example.com/s?q={{ query }}",
    "fields": {"search": {
      "list": {"steps": [{"kind": "css", "css": ".item"}]},
      "id": {"steps": [{"kind": "const", "const": "x"}]},
      "title": {"steps": [{"kind": "const", "const": "x"}]}
    }}
  }
}`

func TestSchemaHandler(t *testing.T) {
	r := NewRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestValidateHandlerAcceptsMinimalRule(t *testing.T) {
	r := NewRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(minimalRule))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)
}

func TestValidateHandlerRejectsMalformedJSON(t *testing.T) {
	r := NewRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHandlerRejectsUnknownFlow(t *testing.T) {
	r := NewRouter()
	body := `{"rule": ` + minimalRule + `, "flow": "bogus"}`
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
