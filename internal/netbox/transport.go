package netbox

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// retryTransport applies a fixed pre-request delay and bounded retry with
// exponential backoff on transient NetBox responses (429, 502, 503). All
// reconciliation writes share global identifier spaces, so requests stay
// strictly sequential; the delay throttles write volume against busy
// NetBox instances.
type retryTransport struct {
	base    http.RoundTripper
	delay   time.Duration
	retries int
	backoff float64
}

func newRetryTransport(delay time.Duration, retries int, backoff float64) *retryTransport {
	return &retryTransport{
		base:    http.DefaultTransport,
		delay:   delay,
		retries: retries,
		backoff: backoff,
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body so retried attempts can resend it.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		if t.delay > 0 {
			time.Sleep(t.delay)
		}
		if attempt > 0 {
			wait := time.Duration(t.backoff * math.Pow(2, float64(attempt-1)) * float64(time.Second))
			log.WithFields(log.Fields{
				"attempt": attempt,
				"wait":    wait,
				"url":     req.URL.Path,
			}).Warn("⚠️ Retrying NetBox request after transient error")
			time.Sleep(wait)
		}

		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err = t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) || attempt == t.retries {
			return resp, nil
		}
		// Drain so the connection can be reused before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
