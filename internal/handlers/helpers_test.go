package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"case insensitive scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
		{"padded token", "Bearer   abc123  ", "abc123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, extractBearerToken(r))
		})
	}
}
