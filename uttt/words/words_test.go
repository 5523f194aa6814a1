package words

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedDictionary(t *testing.T) {
	d, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Len() < 100 {
		t.Fatalf("dictionary has %d words, want at least 100", d.Len())
	}
	parts := strings.Split(d.Code(), Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		t.Fatalf("unexpected code shape %v", parts)
	}
}

func TestCodeUsesInjectedRandomness(t *testing.T) {
	picks := []int{2, 0}
	d, err := New([]string{"red", "green", "blue"}, func(n int) int {
		v := picks[0]
		picks = picks[1:]
		return v
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := d.Code(); got != "blue-red" {
		t.Fatalf("code = %q, want blue-red", got)
	}
}
