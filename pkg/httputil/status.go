package httputil

import (
	"net/http"

	"github.com/matzehuels/hoister/pkg/errors"
)

// CheckStatus maps an HTTP status to a coded error for the resource at url.
func CheckStatus(code int, url string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodePackageNotFound, "%s: not found", url)
	case code == http.StatusTooManyRequests || code >= 500:
		return Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", url, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d", url, code)
	}
}
