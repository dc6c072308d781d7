package uploadid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()

	if !strings.HasPrefix(id, "up_") {
		t.Errorf("New() = %v, want up_ prefix", id)
	}
	// 26 ULID chars after the prefix
	if len(id) != len("up_")+26 {
		t.Errorf("New() length = %v, want %v", len(id), len("up_")+26)
	}
	if id != strings.ToLower(id) {
		t.Errorf("New() = %v, want lowercase", id)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := New()
		if _, ok := seen[id]; ok {
			t.Fatalf("New() produced duplicate %v", id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"generated ID", New(), true},
		{"missing prefix", "01hq3ka9x7e8b2m4n6p8r0t2v4", false},
		{"wrong prefix", "jan_01hq3ka9x7e8b2m4n6p8r0t2v4", false},
		{"empty", "", false},
		{"prefix only", "up_", false},
		{"garbage suffix", "up_not-a-ulid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	id := New()

	parsed, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", id, err)
	}
	if got := "up_" + strings.ToLower(parsed.String()); got != id {
		t.Errorf("Parse round trip = %v, want %v", got, id)
	}

	if _, err := Parse("up_zzz"); err == nil {
		t.Error("Parse(up_zzz) expected error, got nil")
	}
}
