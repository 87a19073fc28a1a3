package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIssuer(t *testing.T) {
	assert.Equal(t, "https://idp.example.com", normalizeIssuer("https://idp.example.com/"))
	assert.Equal(t, "https://idp.example.com", normalizeIssuer("  https://idp.example.com "))
	assert.Equal(t, "https://idp.example.com/oauth2/default", normalizeIssuer("https://idp.example.com/oauth2/default"))
	assert.Equal(t, "", normalizeIssuer(""))
}
