package utils_test

import (
	"StudyVault/utils"
	"testing"
)

// TestSanitizeHeaderFilename tests header-breaking character removal.
func TestSanitizeHeaderFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"notes.pdf", "notes.pdf"},
		{"  padded.pdf  ", "padded.pdf"},
		{"evil\r\nheader.pdf", "evilheader.pdf"},
		{`quo"ted.pdf`, "quoted.pdf"},
		{"", "download"},
		{"   ", "download"},
	}
	for _, tc := range cases {
		if got := utils.SanitizeHeaderFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeHeaderFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
