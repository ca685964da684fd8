package template_test

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/template"
)

func TestEnvName(t *testing.T) {
	// Arrange + Act
	name, fn := template.EnvName(canopy.Staging)

	// Assert
	require.Equal(t, "env", name)
	require.Equal(t, "STAGING", fn())
}

func TestNonce(t *testing.T) {
	// Arrange + Act
	name, fn := template.Nonce()
	first, second := fn(), fn()

	// Assert
	require.Equal(t, "nonce", name)
	require.NotEqual(t, first, second)
	_, err := uuid.Parse(first)
	require.Nil(t, err)
}

func TestRootUrl(t *testing.T) {
	tcs := []struct {
		name     string
		u        *url.URL
		expected string
	}{
		{"nil", nil, ""},
		{"url", &url.URL{Scheme: "https", Host: "example.com", Path: "/"}, "https://example.com/"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			name, fn := template.RootUrl(tc.u)

			// Assert
			require.Equal(t, "root_url", name)
			require.Equal(t, tc.expected, fn())
		})
	}
}

func TestTemplateFns(t *testing.T) {
	// Arrange
	env := template.NewEnv(
		template.WithFn(template.EnvName(canopy.Development)),
		template.WithFn(template.RootUrl(&url.URL{Scheme: "http", Host: "localhost:3000", Path: "/"})),
	)

	// Act
	actual := render(t, `<a href={root_url()}>{env()}</a>`, env, nil)

	// Assert
	require.Equal(t, `<a href="http://localhost:3000/">DEVELOPMENT</a>`, actual)
}
