package entity

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLink(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://www.ledevoir.com/politique/123", wantErr: false},
		{name: "valid http URL", url: "http://example.com/article", wantErr: false},
		{name: "valid URL with query", url: "https://example.com/a?utm_source=rss", wantErr: false},
		{name: "loopback is syntactically fine", url: "http://127.0.0.1/a", wantErr: false},
		{name: "empty URL", url: "", wantErr: true},
		{name: "invalid scheme - ftp", url: "ftp://example.com/a", wantErr: true},
		{name: "invalid scheme - javascript", url: "javascript:alert(1)", wantErr: true},
		{name: "no host", url: "https://", wantErr: true},
		{name: "no scheme", url: "example.com", wantErr: true},
		{name: "malformed URL", url: "ht!tp://example.com", wantErr: true},
		{name: "URL exceeding maximum length", url: "https://example.com/" + strings.Repeat("a", 2050), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLink(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLink() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL_PrivateNetworks(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "localhost", url: "http://localhost/feed"},
		{name: "loopback", url: "http://127.0.0.1/feed"},
		{name: "10.x.x.x", url: "http://10.0.0.1/feed"},
		{name: "192.168.x.x", url: "http://192.168.1.1/feed"},
		{name: "172.16.x.x", url: "http://172.16.0.1/feed"},
		{name: "cloud metadata", url: "http://169.254.169.254/latest/meta-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			require.Error(t, err)

			var validationErr *ValidationError
			assert.True(t, errors.As(err, &validationErr))
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestValidateURL_ErrorTypes(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "https://"} {
		err := ValidateURL(raw)
		require.Error(t, err, raw)

		var validationErr *ValidationError
		assert.True(t, errors.As(err, &validationErr), "expected ValidationError for %q, got %T", raw, err)
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip        string
		isPrivate bool
	}{
		{"127.0.0.1", true},
		{"127.1.2.3", true},
		{"::1", true},
		{"169.254.169.254", true},
		{"fe80::1", true},
		{"10.123.45.67", true},
		{"172.20.10.5", true},
		{"192.168.255.255", true},
		{"8.8.8.8", false},
		{"172.32.0.1", false},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.isPrivate, isPrivateIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestValidatePromptText(t *testing.T) {
	assert.NoError(t, ValidatePromptText("Hockey à Montréal"))
	assert.Error(t, ValidatePromptText(""))
	assert.Error(t, ValidatePromptText("   \n\t"))
	assert.Error(t, ValidatePromptText(strings.Repeat("é", MaxPromptLength+1)))
	assert.NoError(t, ValidatePromptText(strings.Repeat("é", MaxPromptLength)))
}

func TestValidateSettings(t *testing.T) {
	ok := 1.2
	tooHigh := 2.5
	negative := -0.1

	assert.NoError(t, ValidateSettings(PromptSettings{}))
	assert.NoError(t, ValidateSettings(PromptSettings{Threshold: &ok, Limit: 50}))
	assert.Error(t, ValidateSettings(PromptSettings{Threshold: &tooHigh}))
	assert.Error(t, ValidateSettings(PromptSettings{Threshold: &negative}))
	assert.Error(t, ValidateSettings(PromptSettings{Limit: -1}))
}
