package page

import (
	"context"
	"io"
	"net/http"
	"time"

	"flickrscrapr/pkg/config"
	errs "flickrscrapr/pkg/errors"
	"flickrscrapr/pkg/logger"
)

// Fetcher downloads pages over HTTP. The returned markup is whatever the
// server renders; scripts are not run.
type Fetcher struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewFetcher creates a Fetcher with browser-like request headers
func NewFetcher(cfg config.FetchConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
		},
		logger: log.WithField("component", "fetcher"),
	}
}

// Fetch downloads and parses the page at url. The document keeps url as its
// address even when the server redirected.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, err, "failed to create request: %v", err)
	}

	resp, err := f.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	doc, err := NewDocument(resp.Body, url)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, resp.StatusCode, err, "failed to parse page %s", url)
	}
	return doc, nil
}

// doRequest performs an HTTP request with the configured headers
func (f *Fetcher) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range f.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	f.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := f.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		f.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, err, "network error: %v", err)
	}

	logger.LogRequest(f.logger, req.Method, req.URL.String(), resp.StatusCode,
		float64(duration.Microseconds())/1000)

	return resp, nil
}

// checkResponseStatus maps non-2xx/3xx statuses to typed errors
func checkResponseStatus(resp *http.Response) error {
	errType := errs.TypeForStatus(resp.StatusCode)
	if errType == "" {
		return nil
	}

	// include the start of the body in the message
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	return errs.New(errType, resp.StatusCode, nil,
		"unexpected status %d for %s: %s", resp.StatusCode, resp.Request.URL, body)
}
