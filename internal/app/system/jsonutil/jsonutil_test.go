package jsonutil_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	jsonutil.Error(rec, http.StatusNotFound, "User not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["error"] != "User not found" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		empty   bool
	}{
		{"object", `{"banned":true}`, false, false},
		{"empty", ``, true, true},
		{"malformed", `{"banned":`, true, false},
		{"too large", `{"x":"` + strings.Repeat("a", 64) + `"}`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var v map[string]any
			err := jsonutil.Decode(rec, req, &v, 32)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.empty && !errors.Is(err, jsonutil.ErrEmptyBody) {
				t.Errorf("err = %v, want ErrEmptyBody", err)
			}
		})
	}
}
