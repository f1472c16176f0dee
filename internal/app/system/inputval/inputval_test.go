package inputval

import (
	"testing"

	"github.com/dalemusser/orderly/internal/app/system/apierr"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@example.co.uk", true},
		{"  a@b.co  ", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user @example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"  507f1f77bcf86cd799439011  ", true},
		{"FFFFFFFFFFFFFFFFFFFFFFFF", true},
		{"", false},
		{"507f1f77bcf86cd79943901", false},
		{"507f1f77bcf86cd79943901g", false},
		{"not-a-valid-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidObjectID(tt.id); got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
			_, err := ObjectID(tt.id, "team id")
			if (err == nil) != tt.want {
				t.Errorf("ObjectID(%q) err = %v", tt.id, err)
			}
			if err != nil && apierr.KindOf(err) != apierr.KindValidation {
				t.Errorf("ObjectID(%q) kind = %v, want validation", tt.id, apierr.KindOf(err))
			}
		})
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" msg:"Username must be a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type teamInput struct {
	TeamID string `json:"teamId" validate:"required,objectid"`
	Name   string `json:"name" validate:"max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"valid login", loginInput{Email: "a@b.co", Password: "x"}, ""},
		{"custom message", loginInput{Email: "nope", Password: "x"}, "Username must be a valid email"},
		{"second field", &loginInput{Email: "a@b.co"}, "Password is required"},
		{"generated required", teamInput{}, "teamId is required"},
		{"generated objectid", teamInput{TeamID: "xyz"}, "teamId must be a valid id"},
		{"generated max", teamInput{TeamID: "507f1f77bcf86cd799439011", Name: "toolong"}, "name must be at most 5 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Struct() expected error")
			}
			ae, ok := err.(*apierr.Error)
			if !ok {
				t.Fatalf("error type = %T, want *apierr.Error", err)
			}
			if ae.Kind != apierr.KindValidation {
				t.Errorf("kind = %v, want validation", ae.Kind)
			}
			if ae.Message != tt.want {
				t.Errorf("message = %q, want %q", ae.Message, tt.want)
			}
		})
	}
}
