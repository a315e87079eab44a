package meli_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/meli-collector/internal/meli"
)

func TestStatusMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want string
	}{
		{code: 400, want: "Error 400 - Bad request"},
		{code: 401, want: "Error 401 - User not authenticated"},
		{code: 403, want: "Error 403 - User not authorized"},
		{code: 429, want: "Error 429 - Too many requests, wait"},
		{code: 500, want: "Error 500 - Internal server error"},
		{code: 503, want: "Error 503 - Service unavailable"},
		{code: 504, want: "Error 504 - Gateway timeout"},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.code), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, meli.StatusMessage(tt.code))
			assert.True(t, meli.IsKnownStatus(tt.code))
		})
	}
}

func TestStatusMessage_Unknown(t *testing.T) {
	t.Parallel()

	for _, code := range []int{0, -1, 200, 404, 418, 502, 599, 1000} {
		msg := meli.StatusMessage(code)
		assert.Contains(t, msg, strconv.Itoa(code))
		assert.Contains(t, msg, "Unknown error")
		assert.False(t, meli.IsKnownStatus(code))
	}
}
