// Package igdb talks to the IGDB v4 API (https://api-docs.igdb.com).
// Queries use IGDB's Apicalypse language posted as text/plain; auth is a
// Twitch OAuth bearer token plus Client-ID header, owned by TokenManager.
package igdb

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/retroprint/labelforge/internal/utils"
	"github.com/retroprint/labelforge/pkg/record"
	"github.com/retroprint/labelforge/pkg/whttp"
)

// ImageBaseURL is where IGDB serves uploaded artwork; append a size tag
// segment, the image id and an extension.
const ImageBaseURL = "https://images.igdb.com/igdb/image/upload"

// Client issues Apicalypse queries. Requests are sequential and blocking;
// there is no retry, and a transport failure is fatal to the current
// collection step.
type Client struct {
	tokens *TokenManager
	http   *http.Client
}

func NewClient(tokens *TokenManager, httpClient *http.Client) *Client {
	return &Client{tokens: tokens, http: httpClient}
}

// Count runs a count query and returns how many records match. IGDB count
// endpoints reply {"count": N}.
func (c *Client) Count(countURL, body string) (int, error) {
	res, err := c.post(countURL, body)
	if err != nil {
		return 0, err
	}

	count := gjson.Get(res, "count")
	if !count.Exists() {
		return 0, fmt.Errorf("igdb: unexpected count reply from %s: %s", countURL, res)
	}
	return int(count.Int()), nil
}

// Query runs a data query and returns the matching records.
func (c *Client) Query(endpointURL, body string) ([]record.Record, error) {
	res, err := c.post(endpointURL, body)
	if err != nil {
		return nil, err
	}

	records, err := record.FromJSON([]byte(res))
	if err != nil {
		return nil, fmt.Errorf("igdb: decoding reply from %s: %w", endpointURL, err)
	}
	return records, nil
}

func (c *Client) post(url, body string) (string, error) {
	if err := c.tokens.Initialise(); err != nil {
		return "", err
	}
	headers, err := c.tokens.Header()
	if err != nil {
		return "", err
	}
	headers = append(headers, whttp.Header{Name: "Content-Type", Value: "text/plain"})

	utils.Log.Debug("igdb query: ", url, " body: ", body)

	res, err := whttp.Send(&whttp.Request{
		Method:  http.MethodPost,
		URL:     url,
		Body:    body,
		Headers: headers,
	}, c.http)
	if err != nil {
		return "", fmt.Errorf("igdb: request to %s: %w", url, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("igdb: %s replied %d: %s", url, res.StatusCode, res.BodyString)
	}
	return res.BodyString, nil
}

var limitStmt = regexp.MustCompile(`limit\s+\d+;`)

// WithLimitOffset rewrites the limit statement in an Apicalypse body and
// appends an offset, producing the body for one collection page. A body
// without a limit statement gets one appended.
func WithLimitOffset(body string, limit, offset int) string {
	limited := limitStmt.ReplaceAllString(body, fmt.Sprintf("limit %d;", limit))
	if !limitStmt.MatchString(limited) {
		limited = fmt.Sprintf("%s limit %d;", limited, limit)
	}
	if offset > 0 {
		limited = fmt.Sprintf("%s offset %d;", limited, offset)
	}
	return limited
}

// WherePlatform merges a platform filter into an Apicalypse body, extending
// an existing where clause with & rather than stacking a second one.
func WherePlatform(body string, platformID int64) string {
	if strings.Contains(body, "where ") {
		return strings.Replace(body, "where ", fmt.Sprintf("where platforms = (%d) & ", platformID), 1)
	}
	return fmt.Sprintf("%s where platforms = (%d);", strings.TrimSpace(body), platformID)
}
