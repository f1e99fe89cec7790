package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "already canonical",
			raw:  "https://example.com/tool",
			want: "https://example.com/tool",
		},
		{
			name: "upper case scheme and host",
			raw:  "HTTPS://Example.COM/Tool",
			want: "https://example.com/Tool",
		},
		{
			name: "trailing slash stripped",
			raw:  "https://example.com/tool/",
			want: "https://example.com/tool",
		},
		{
			name: "bare host trailing slash",
			raw:  "https://example.com/",
			want: "https://example.com",
		},
		{
			name: "default https port stripped",
			raw:  "https://example.com:443/tool",
			want: "https://example.com/tool",
		},
		{
			name: "default http port stripped",
			raw:  "http://example.com:80/tool",
			want: "http://example.com/tool",
		},
		{
			name: "non-default port kept",
			raw:  "https://example.com:8443/tool",
			want: "https://example.com:8443/tool",
		},
		{
			name: "utm params dropped",
			raw:  "https://example.com/tool?utm_source=newsletter&utm_campaign=x&ref=abc",
			want: "https://example.com/tool?ref=abc",
		},
		{
			name: "query keys sorted",
			raw:  "https://example.com/tool?b=2&a=1",
			want: "https://example.com/tool?a=1&b=2",
		},
		{
			name: "fragment dropped",
			raw:  "https://example.com/tool#pricing",
			want: "https://example.com/tool",
		},
		{
			name: "surrounding whitespace",
			raw:  "  https://example.com/tool  ",
			want: "https://example.com/tool",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "missing scheme",
			raw:     "example.com/tool",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			raw:     "ftp://example.com/tool",
			wantErr: true,
		},
		{
			name:    "scheme without host",
			raw:     "https://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalizeURL(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeURL_FixedPoint(t *testing.T) {
	inputs := []string{
		"HTTPS://Example.COM:443/Tool/?utm_source=x&b=2&a=1#frag",
		"http://example.com:80/",
		"https://sub.example.com/a/b?z=1",
	}

	for _, raw := range inputs {
		once, err := CanonicalizeURL(raw)
		require.NoError(t, err)
		twice, err := CanonicalizeURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "canonicalization must be idempotent for %q", raw)
	}
}
