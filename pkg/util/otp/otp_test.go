package otp

import (
	"errors"
	"regexp"
	"testing"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

func TestGenerate(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]+$`)

	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"min length", MinLength, false},
		{"default length", DefaultLength, false},
		{"max length", MaxLength, false},
		{"too short", 3, true},
		{"too long", 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Generate(tt.length)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLength) {
					t.Fatalf("expected ErrInvalidLength, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(code) != tt.length || !digits.MatchString(code) {
				t.Errorf("Generate(%d) = %q", tt.length, code)
			}
		})
	}
}

func TestHashVerify(t *testing.T) {
	h := Hash("123456")
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h))
	}
	if err := Verify(h, " 123456 "); err != nil {
		t.Errorf("expected trimmed code to verify, got %v", err)
	}
	if err := Verify(h, "654321"); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

func TestFromCentralConfig(t *testing.T) {
	if got := FromCentralConfig(config.OTPConfig{}); got.Length != DefaultLength {
		t.Errorf("expected default length, got %d", got.Length)
	}
	if err := FromCentralConfig(config.OTPConfig{Length: 12}).Validate(); err == nil {
		t.Error("expected validation error for length 12")
	}
}
