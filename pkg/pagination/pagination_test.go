package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Params
	}{
		{"defaults", 0, 0, Params{Page: 1, Limit: DefaultLimit}},
		{"negative", -3, -1, Params{Page: 1, Limit: DefaultLimit}},
		{"clamped limit", 2, 500, Params{Page: 2, Limit: MaxLimit}},
		{"as given", 3, 10, Params{Page: 3, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.page, tt.limit))
		})
	}
}

func TestNewResponse(t *testing.T) {
	p := New(2, 10)
	assert.Equal(t, 10, p.Offset())

	r := NewResponse([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 25, p)
	assert.True(t, r.HasMore)
	assert.Equal(t, 2, r.Page)

	last := NewResponse([]int{1, 2, 3, 4, 5}, 25, New(3, 10))
	assert.False(t, last.HasMore)

	empty := NewResponse[string](nil, 0, New(1, 20))
	assert.NotNil(t, empty.Data)
	assert.False(t, empty.HasMore)
}
