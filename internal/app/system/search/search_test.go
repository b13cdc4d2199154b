package search

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNamePrefix(t *testing.T) {
	tests := []struct {
		name    string
		q       string
		pattern string
	}{
		{"plain", "chess", "^chess"},
		{"case folded", "Chess Club", "^chess club"},
		{"regex syntax quoted", "c+. (x)", `^c\+\. \(x\)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NamePrefix(tt.q)
			if f == nil {
				t.Fatalf("NamePrefix(%q) = nil", tt.q)
			}
			re, ok := f["name_ci"].(primitive.Regex)
			if !ok {
				t.Fatalf("name_ci clause is %T, want primitive.Regex", f["name_ci"])
			}
			if re.Pattern != tt.pattern {
				t.Errorf("pattern = %q, want %q", re.Pattern, tt.pattern)
			}
		})
	}
}

func TestNamePrefixBlank(t *testing.T) {
	for _, q := range []string{"", "   "} {
		if f := NamePrefix(q); f != nil {
			t.Errorf("NamePrefix(%q) = %v, want nil", q, f)
		}
	}
}
