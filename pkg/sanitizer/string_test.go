package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Ada Lovelace  ",
			want:  "Ada Lovelace",
		},
		{
			name:  "multiple spaces between words",
			input: "Ada    Lovelace",
			want:  "Ada Lovelace",
		},
		{
			name:  "tabs and newlines",
			input: "Ada\t\nLovelace",
			want:  "Ada Lovelace",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "invisible characters dropped",
			input: "Ada\u200b Love\u0007lace",
			want:  "Ada Lovelace",
		},
		{
			name:  "preserve special characters",
			input: " Zoë O'Brien-Núñez ",
			want:  "Zoë O'Brien-Núñez",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	once := NormalizeName("  Ada \t Lovelace ")
	if twice := NormalizeName(once); twice != once {
		t.Errorf("NormalizeName not idempotent: %q then %q", once, twice)
	}
}

func TestTrimAndNormalize(t *testing.T) {
	if got := TrimAndNormalize(" 18:00 \t"); got != "18:00" {
		t.Errorf("TrimAndNormalize() = %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
