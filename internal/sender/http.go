package sender

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vitalis-app/rackmon/internal/config"
)

const (
	// defaultHTTPTimeout is the request timeout used when none is configured.
	defaultHTTPTimeout = 5 * time.Second

	// retryWait is the base delay between retries of one gauge.
	retryWait = 100 * time.Millisecond

	// maxRetryWait caps resty's exponential backoff.
	maxRetryWait = 2 * time.Second
)

// HTTPSink posts each reading to /update/gauge/{name}/{value} on a metrics
// server.
type HTTPSink struct {
	client *resty.Client
}

// NewHTTPSink creates a resty client for cfg.URL. Connection errors and 5xx
// responses are retried cfg.Retries times.
func NewHTTPSink(cfg config.HTTPSinkConfig) *HTTPSink {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})

	return &HTTPSink{client: client}
}

// Gauge posts one reading.
func (s *HTTPSink) Gauge(name string, value float64) error {
	resp, err := s.client.R().
		SetPathParams(map[string]string{
			"mName":  name,
			"mValue": strconv.FormatFloat(value, 'f', -1, 64),
		}).
		SetHeader("Content-Type", "text/plain").
		Post("/update/gauge/{mName}/{mValue}")
	if err != nil {
		return fmt.Errorf("posting gauge %s: %w", name, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("posting gauge %s: unexpected status %d", name, resp.StatusCode())
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSink) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}
