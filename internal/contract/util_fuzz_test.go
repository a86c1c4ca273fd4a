package contract

import (
	"strings"
	"testing"
)

func FuzzParseBoolString(f *testing.F) {
	for _, seed := range []string{"yes", "no", "TRUE", "0", "", "maybe"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		got, err := ParseBoolString(s)
		if err != nil {
			return
		}
		lower := strings.ToLower(s)
		truthy := lower == "yes" || lower == "true" || lower == "1"
		if got != truthy {
			t.Fatalf("ParseBoolString(%q) = %v", s, got)
		}
	})
}
