package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"question": "  Why so much on food?  ", "income": 4250.5, "risk": null}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if q := parser.Get("question"); q != "Why so much on food?" {
		t.Errorf("Get('question') = %q", q)
	}
	if income := parser.Get("income"); income != "4250.5" {
		t.Errorf("Get('income') = %q, want '4250.5'", income)
	}
	if parser.Has("risk") {
		t.Error("null values count as absent")
	}
	if parser.Optional("language") != nil {
		t.Error("Optional('language') should be nil")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "income=&language=Espa%C3%B1ol"
	req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if lang := parser.Get("language"); lang != "Español" {
		t.Errorf("Get('language') = %q", lang)
	}
	income := parser.Optional("income")
	if income == nil || *income != "" {
		t.Errorf("Optional('income') = %v, want pointer to empty string", income)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(""))

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":`))
		if err := NewRequestBodyParser(httptest.NewRecorder(), req).Parse(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"question":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(big))
		if err := NewRequestBodyParser(httptest.NewRecorder(), req).Parse(); err != ErrBodyTooLarge {
			t.Errorf("Parse() error = %v, want ErrBodyTooLarge", err)
		}
	})
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  food  ", "food"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
