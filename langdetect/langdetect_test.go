package langdetect

import "testing"

func TestDetect(t *testing.T) {
	d := New()
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "the quick brown fox jumps over the lazy dog", "en"},
		{"german", "der schnelle braune Fuchs springt über den faulen Hund", "de"},
		{"empty", "", ""},
		{"whitespace", "   \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
