package address

import (
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantValid   bool
		wantInvalid []string
	}{
		{
			name:      "single valid address",
			text:      "a@b.com",
			wantValid: true,
		},
		{
			name:      "multiple valid addresses",
			text:      "a@b.com; c@d.org;e@f.co.uk",
			wantValid: true,
		},
		{
			name:      "empty field",
			text:      "",
			wantValid: true,
		},
		{
			name:      "only delimiters and whitespace",
			text:      " ; ;  ; ",
			wantValid: true,
		},
		{
			name:        "one bad token among valid ones",
			text:        "a@b.com; ; bad-address ; c@d.com",
			wantValid:   false,
			wantInvalid: []string{"bad-address"},
		},
		{
			name:        "missing domain dot",
			text:        "a@b",
			wantValid:   false,
			wantInvalid: []string{"a@b"},
		},
		{
			name:        "whitespace inside local part",
			text:        "a b@c.com",
			wantValid:   false,
			wantInvalid: []string{"a b@c.com"},
		},
		{
			name:        "missing at sign",
			text:        "nobody.example.com",
			wantValid:   false,
			wantInvalid: []string{"nobody.example.com"},
		},
		{
			name:        "invalid tokens keep original order",
			text:        "x; a@b.com; y; z",
			wantValid:   false,
			wantInvalid: []string{"x", "y", "z"},
		},
		{
			name:        "double at sign",
			text:        "a@@b.com",
			wantValid:   false,
			wantInvalid: []string{"a@@b.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.text)
			if got.Valid != tt.wantValid {
				t.Errorf("Validate(%q).Valid = %v, want %v", tt.text, got.Valid, tt.wantValid)
			}
			if !reflect.DeepEqual(got.Invalid, tt.wantInvalid) {
				t.Errorf("Validate(%q).Invalid = %v, want %v", tt.text, got.Invalid, tt.wantInvalid)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("  a@b.com ;; c@d.com ;")
	want := []string{"a@b.com", "c@d.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}

	if toks := Tokens(" ; "); toks != nil {
		t.Errorf("Tokens of blank input = %v, want nil", toks)
	}
}

func TestJoin(t *testing.T) {
	got := Join([]string{"a@b.com", "c@d.com"})
	if got != "a@b.com; c@d.com" {
		t.Errorf("Join() = %q", got)
	}
}
