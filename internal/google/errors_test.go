package google

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/tartampluch/birthday-sync/internal/provider"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		fatal     bool
	}{
		{"nil", nil, false, false},
		{"network failure", errors.New("connection reset by peer"), true, false},
		{"rate limited", &googleapi.Error{Code: 429}, true, false},
		{"server error", &googleapi.Error{Code: 503}, true, false},
		{"not found", &googleapi.Error{Code: 404}, false, true},
		{"unauthorized", &googleapi.Error{Code: 401}, false, true},
		{"forbidden", &googleapi.Error{Code: 403}, false, true},
		{"bad request passes through", &googleapi.Error{Code: 400}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.transient, provider.IsTransient(got))
			assert.Equal(t, tt.fatal, provider.IsFatal(got))
		})
	}
}

func TestClassify_UnwrapsNestedAPIError(t *testing.T) {
	err := fmt.Errorf("inserting event: %w", &googleapi.Error{Code: 500})
	assert.True(t, provider.IsTransient(classify(err)))
}
