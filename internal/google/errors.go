// Package google adapts the Google People, Calendar and Gmail APIs to the
// ingest, sync and digest ports.
package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/tartampluch/birthday-sync/internal/provider"
)

// classify maps an API error onto the retry taxonomy. Rate limiting and
// server errors are worth retrying; missing resources and auth failures
// are not.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		// Network-level failures (timeouts, resets) are transient.
		return provider.Transient(err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
		return provider.Transient(err)
	case apiErr.Code == http.StatusNotFound,
		apiErr.Code == http.StatusUnauthorized,
		apiErr.Code == http.StatusForbidden:
		return provider.Fatal(err)
	default:
		return err
	}
}
