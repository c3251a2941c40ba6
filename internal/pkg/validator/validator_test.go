package validator

import "testing"

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user operator admin"`
	Width int    `json:"width" validate:"omitempty,min=1,max=10000"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		input      sample
		wantFields []string
	}{
		{"valid", sample{Email: "a@b.co", Role: "user", Width: 10}, nil},
		{"bad email", sample{Email: "nope", Role: "user"}, []string{"email"}},
		{"bad role", sample{Email: "a@b.co", Role: "root"}, []string{"role"}},
		{"width too large", sample{Email: "a@b.co", Role: "admin", Width: 20000}, []string{"width"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.input)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got %d errors (%+v), want %d", len(errs), errs, len(tt.wantFields))
			}
			for i, f := range tt.wantFields {
				if errs[i].Field != f {
					t.Errorf("error %d field = %s, want %s", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestValidator_NumericMessage(t *testing.T) {
	errs := New().Validate(sample{Email: "a@b.co", Role: "user", Width: 20000})
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %+v", errs)
	}
	if errs[0].Message != "width must be at most 10000" {
		t.Errorf("message = %q", errs[0].Message)
	}
}

type profile struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50,username"`
	AltText  string `json:"altText" validate:"required,alttext,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidator_CustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		input     profile
		wantField string
		wantTag   string
	}{
		{"valid", profile{Username: "jane.doe-1", AltText: "A red bike", Password: "password1"}, "", ""},
		{"blank alt text", profile{AltText: "   ", Password: "password1"}, "altText", "alttext"},
		{"multi-line alt text", profile{AltText: "line one\nline two", Password: "password1"}, "altText", "alttext"},
		{"alt text counted in runes", profile{AltText: "ééééééééééééééééééé", Password: "password1"}, "", ""},
		{"username with space", profile{Username: "jane doe", AltText: "ok", Password: "password1"}, "username", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.input)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors %+v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Field != tt.wantField || errs[0].Tag != tt.wantTag {
				t.Fatalf("errors = %+v, want one %s/%s", errs, tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidator_DoesNotEchoPassword(t *testing.T) {
	errs := New().Validate(profile{AltText: "ok", Password: "short"})
	if len(errs) != 1 || errs[0].Field != "password" {
		t.Fatalf("errors = %+v", errs)
	}
	if errs[0].Value != "" {
		t.Errorf("Value = %q, want it withheld", errs[0].Value)
	}
}
