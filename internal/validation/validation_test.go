package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "learner@example.com", false},
		{"valid with plus", "learner+tag@example.co.uk", false},
		{"surrounding spaces", "  learner@example.com  ", false},
		{"empty", "", true},
		{"no at sign", "learner.example.com", true},
		{"no tld", "learner@example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("short password accepted")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("empty password accepted")
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
}

func TestValidateDisplayName(t *testing.T) {
	if err := ValidateDisplayName(""); err != nil {
		t.Errorf("empty display name rejected: %v", err)
	}
	if err := ValidateDisplayName("x"); err == nil {
		t.Error("one-character display name accepted")
	}
	if err := ValidateDisplayName("Avery"); err != nil {
		t.Errorf("valid display name rejected: %v", err)
	}
}
