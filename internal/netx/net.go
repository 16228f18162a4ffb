// Package netx builds the HTTP plumbing shared by API clients: a
// round-tripper that attaches the bearer access token to every request and a
// client constructor with sane timeouts.
package netx

import (
	"net/http"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

// bearerTransport injects "Authorization: Bearer <token>" into outgoing
// requests. The token is looked up per request so a refreshed token takes
// effect without rebuilding the client.
type bearerTransport struct {
	token func() string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := t.token(); tok != "" {
		// Per RoundTripper contract the request must not be mutated.
		clone := req.Clone(req.Context())
		clone.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
		return t.next.RoundTrip(clone)
	}
	return t.next.RoundTrip(req)
}

// NewHTTPClient returns an *http.Client with the given total request timeout
// that authenticates every request with the token returned by tokenFn.
// tokenFn may return "" for anonymous requests.
func NewHTTPClient(timeout time.Duration, tokenFn func() string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &bearerTransport{
			token: tokenFn,
			next:  http.DefaultTransport,
		},
	}
}
