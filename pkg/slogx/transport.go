package slogx

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/fleetadmin/pkg/idx"
)

// RequestIDHeader correlates client and server log lines.
const RequestIDHeader = "X-Request-ID"

// Transport is the client-side counterpart of HTTPMiddleware. It stamps each
// outbound request with a request ID and logs the exchange through the logger
// found in the request context.
type Transport struct {
	// Base is the underlying RoundTripper; nil means http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = idx.New().String()
		// RoundTrippers must not mutate the caller's request
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, reqID)
	}

	logger := FromContext(req.Context()).With(
		"req_id", reqID,
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_call_failed", "duration_ms", duration, "error", err)
		return nil, err
	}

	logger.Debug("http_call", "status", resp.StatusCode, "duration_ms", duration)
	return resp, nil
}
