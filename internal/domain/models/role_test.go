package models

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"", RoleMedicalRep, false},
		{"Country Manager", RoleCountryManager, false},
		{"  sales supervisor ", RoleSalesSupervisor, false},
		{"KAM", RoleKAM, false},
		{"kam", RoleKAM, false},
		{"Senior Medical Rep", RoleSeniorMedicalRep, false},
		{"admin", RoleAdmin, false},
		{"superadmin", "", true},
		{"Medical", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRole(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("Medical rep").Valid() {
		t.Error("Valid must be case-sensitive on stored values")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("inactive"); !ok || s != StatusInactive {
		t.Errorf("ParseStatus(inactive) = %q, %v", s, ok)
	}
	if s, ok := ParseStatus("Active"); !ok || s != StatusActive {
		t.Errorf("ParseStatus(Active) = %q, %v", s, ok)
	}
	if _, ok := ParseStatus("disabled"); ok {
		t.Error("ParseStatus(disabled) should not be recognized")
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		u    User
		want string
	}{
		{User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{User{FirstName: "Ada"}, "Ada"},
		{User{LastName: "Lovelace"}, "Lovelace"},
	}
	for _, tt := range tests {
		if got := tt.u.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}
