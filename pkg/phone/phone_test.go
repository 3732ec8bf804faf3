package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE164(t *testing.T) {
	n := NewNormalizer("IN")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"national format", "98765 43210", "+919876543210", false},
		{"already international", "+91 98765-43210", "+919876543210", false},
		{"other country", "+1 650-253-0000", "+16502530000", false},
		{"empty", "  ", "", true},
		{"letters", "call me", "", true},
		{"too short", "12345", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.E164(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
