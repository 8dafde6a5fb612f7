package logger

import "testing"

func TestNew(t *testing.T) {
	for _, mode := range []string{"release", "debug", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("mode %q: %v", mode, err)
		}
		if l == nil {
			t.Fatalf("mode %q: nil logger", mode)
		}
	}
}
