// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1000/abc", "10.1000/abc"},
		{"https://doi.org/10.1000/abc", "https://doi.org/10.1000/abc"},
		{"10.1002/(SICI)1097-4636(199603)30:3<329::AID-JBM6>3.0.CO;2-#", "10.1002/%28SICI%291097-4636%28199603%2930:3%3C329::AID-JBM6%3E3.0.CO%3B2-%23"},
		{"10.1000/a?b c", "10.1000/a%3Fb%20c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := EscapePath(tt.in)
			assert.Equal(t, tt.want, got)

			u, err := url.Parse("https://api.example.org/works/" + got)
			require.NoError(t, err)
			assert.Equal(t, "/works/"+tt.in, u.Path)
			assert.Empty(t, u.Fragment)
			assert.Empty(t, u.RawQuery)
		})
	}
}
