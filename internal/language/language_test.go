package language

import (
	"testing"
)

func TestTesseract(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "eng"},
		{"en", "eng"},
		{"EN", "eng"},
		{"english", "eng"},
		{"fre", "fra"},
		{"ger", "deu"},
		{"zh", "chi_sim"},
		{"chi", "chi_sim"},
		{"chi_tra", "chi_tra"},
		{"en+de", "eng+deu"},
		{" en + eng + spa ", "eng+spa"},
		{"script/Latin", "script/Latin"},
		{"", ""},
		{"+", ""},
	}
	for _, tt := range tests {
		if got := Tesseract(tt.input); got != tt.expected {
			t.Errorf("Tesseract(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"eng", "English"},
		{"fre", "French"},
		{"chi", "Chinese"},
		{"", "Unknown"},
		{"  ", "Unknown"},
		{"chi_tra", "chi_tra"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayList(t *testing.T) {
	if got := DisplayList("eng+deu"); got != "English, German" {
		t.Fatalf("DisplayList = %q", got)
	}
	if got := DisplayList(""); got != "" {
		t.Fatalf("DisplayList(empty) = %q", got)
	}
}
