package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

// Ptr returns a pointer to v, for partial update payloads.
func Ptr[T any](v T) *T {
	return &v
}

// DecodeJSON unmarshals the recorded response body into dst.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}
