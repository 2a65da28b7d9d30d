package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// HTTPHeader is one response header.
type HTTPHeader struct {
	Key string
	Val string
}

type HTTPResponse struct {
	Version string
	Status  int64
	Headers []HTTPHeader
	Body    string
}

// Fixed URLs answered by MockHTTP without touching the network.
const (
	MockOKURL   = "http://example.com"
	MockFailURL = "http://invalid-url-that-fails.test"
)

// ErrFetchFailed is returned for every transport failure.
var ErrFetchFailed = errors.New("Fetch failed")

// StdHTTP performs real requests with net/http.
type StdHTTP struct {
	Client *http.Client
}

func NewStdHTTP(timeout time.Duration) *StdHTTP {
	return &StdHTTP{Client: &http.Client{Timeout: timeout}}
}

func (h *StdHTTP) Do(ctx context.Context, method, url, body string) (*HTTPResponse, error) {
	var rd io.Reader
	if method != http.MethodGet {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	keys := make([]string, 0, len(res.Header))
	for k := range res.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var headers []HTTPHeader
	for _, k := range keys {
		for _, v := range res.Header[k] {
			headers = append(headers, HTTPHeader{Key: strings.ToLower(k), Val: v})
		}
	}

	return &HTTPResponse{
		Version: "HTTP/1.1",
		Status:  int64(res.StatusCode),
		Headers: headers,
		Body:    string(data),
	}, nil
}

// MockHTTP answers MockOKURL with 200 "OK" and fails MockFailURL. Other
// URLs go to Fallback, or fail when it is nil.
type MockHTTP struct {
	Fallback interface {
		Do(ctx context.Context, method, url, body string) (*HTTPResponse, error)
	}
}

func (m MockHTTP) Do(ctx context.Context, method, url, body string) (*HTTPResponse, error) {
	switch url {
	case MockFailURL:
		return nil, ErrFetchFailed
	case MockOKURL:
		return &HTTPResponse{Version: "HTTP/1.1", Status: 200, Body: "OK"}, nil
	}
	if m.Fallback == nil {
		return nil, ErrFetchFailed
	}
	return m.Fallback.Do(ctx, method, url, body)
}
