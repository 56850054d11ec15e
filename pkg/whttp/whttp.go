// Package whttp is a thin wrapper over net/http used by every outbound call
// in the pipeline. It exists so callers deal in plain request/response
// structs instead of juggling http.Request plumbing.
package whttp

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the fixed per-request network timeout. There is no
// retry layer on top: a failed request surfaces to the caller.
const DefaultTimeout = 60 * time.Second

type Header struct {
	Name  string
	Value string
}

type Request struct {
	Method  string
	URL     string
	Body    string
	Headers []Header
}

type Response struct {
	StatusCode int
	BodyString string
}

// DefaultClient carries the fixed timeout; commands may swap it out to
// install a proxy transport.
var DefaultClient = &http.Client{Timeout: DefaultTimeout}

// Send performs one blocking HTTP request. A nil client uses DefaultClient.
// Non-2xx statuses are not turned into errors here; callers decide.
func Send(wReq *Request, client *http.Client) (*Response, error) {
	if client == nil {
		client = DefaultClient
	}

	var body io.Reader
	if wReq.Body != "" {
		body = strings.NewReader(wReq.Body)
	}

	req, err := http.NewRequest(wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "labelforge/1.0")
	req.Header.Set("Accept", "application/json")
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		BodyString: string(bodyBytes),
	}, nil
}
