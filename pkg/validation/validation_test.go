package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Open    string `json:"open" validate:"required,hhmm"`
	Contact string `json:"contact_info" validate:"omitempty,contact"`
	Size    int    `json:"party_size" validate:"min=1,max=10"`
}

func TestStruct(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{name: "valid phone", in: sample{Open: "09:30", Contact: "+12125551234", Size: 2}},
		{name: "valid email", in: sample{Open: "23:59", Contact: "guest@example.com", Size: 2}},
		{name: "empty contact allowed", in: sample{Open: "00:00", Size: 1}},
		{name: "bad time", in: sample{Open: "9:30", Size: 2}, wantField: "open"},
		{name: "hour 24", in: sample{Open: "24:00", Size: 2}, wantField: "open"},
		{name: "missing time", in: sample{Size: 2}, wantField: "open"},
		{name: "bad contact", in: sample{Open: "09:30", Contact: "call me", Size: 2}, wantField: "contact_info"},
		{name: "party too large", in: sample{Open: "09:30", Size: 11}, wantField: "party_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(v, tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			if !strings.HasSuffix(verrs[0].Field, tt.wantField) {
				t.Errorf("field = %q, want suffix %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationErrors_Details(t *testing.T) {
	errs := ValidationErrors{{Field: "open", Message: "bad"}}
	details := errs.Details()
	fields, ok := details["errors"].([]map[string]string)
	if !ok || len(fields) != 1 || fields[0]["field"] != "open" {
		t.Errorf("Details() = %v", details)
	}
	if !strings.Contains(errs.Error(), "1 error(s)") {
		t.Errorf("Error() = %q", errs.Error())
	}
}
