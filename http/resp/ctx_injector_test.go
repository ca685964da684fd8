package resp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/http/resp"
	"github.com/xy-planning-network/canopy/template"
)

func TestDefaultInjector(t *testing.T) {
	// Arrange
	withID := context.WithValue(context.Background(), canopy.RequestIDKey, "abc")
	keys := map[string]any{"request_id": canopy.RequestIDKey}

	tcs := []struct {
		name     string
		keys     map[string]any
		vals     template.Values
		ctx      context.Context
		expected template.Values
	}{
		{"both-nil", nil, nil, nil, nil},
		{"ctx-nil", keys, template.Values{}, nil, template.Values{}},
		{"keys-nil", nil, template.Values{}, withID, template.Values{}},
		{"no-values", keys, template.Values{}, context.Background(), template.Values{}},
		{"vals-has-values", keys, template.Values{"test": 1}, context.Background(), template.Values{"test": 1}},
		{"injected", keys, template.Values{"test": 1}, withID, template.Values{"test": 1, "request_id": "abc"}},
		{"not-overwritten", keys, template.Values{"request_id": "mine"}, withID, template.Values{"request_id": "mine"}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			resp.DefaultInjector{Keys: tc.keys}.Inject(tc.vals, tc.ctx)

			// Assert
			require.Equal(t, tc.expected, tc.vals)
		})
	}
}

func TestNoopInjector(t *testing.T) {
	// Arrange
	vals := template.Values{"test": 1}

	// Act
	resp.NoopInjector{}.Inject(vals, context.WithValue(context.Background(), canopy.RequestIDKey, "abc"))

	// Assert
	require.Equal(t, template.Values{"test": 1}, vals)
}
