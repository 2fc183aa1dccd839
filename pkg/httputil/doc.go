// Package httputil holds the retry and status handling shared by the HTTP
// registry clients.
//
// [Retry] re-runs an operation with exponential backoff while it keeps
// failing with a [RetryableError]. [CheckStatus] turns a registry response
// code into a coded error: 404 becomes PACKAGE_NOT_FOUND, 429 and 5xx become
// retryable NETWORK_ERRORs, everything else that is not 200 is a plain
// NETWORK_ERROR.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp.StatusCode, url)
//	})
package httputil
