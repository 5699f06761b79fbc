package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"creditflow/logger"
)

// HTTPSource fetches resources from a static file origin over HTTP. Fetches
// share one client and are rate limited so a reload burst cannot hammer the
// origin.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// NewHTTPSource builds an HTTP source rooted at baseURL. A non-positive
// requestsPerSecond disables rate limiting.
func NewHTTPSource(baseURL string, timeout time.Duration, requestsPerSecond, burst int) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		if burst <= 0 {
			burst = requestsPerSecond
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     logger.GetLogger(),
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return nil, fmt.Errorf("join url for %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", name, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Name: name, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	s.log.WithComponent("http_source").WithFields(logger.Fields{
		"resource": name,
		"bytes":    len(body),
	}).Debug("fetched resource")
	return body, nil
}
