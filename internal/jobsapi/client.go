package jobsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
	"github.com/MrSnakeDoc/jobfeed/internal/utils"
)

// DefaultEndpoint is the public jobs listing.
const DefaultEndpoint = "https://testapi.getlokalapp.com/common/jobs"

// Page is one decoded page of the listing.
type Page struct {
	// RawCount is len(results) before filtering. Zero means the listing is exhausted.
	RawCount int
	// Jobs are the records with a numeric id, in upstream order.
	Jobs []domain.Job
}

type response struct {
	Results []json.RawMessage `json:"results"`
}

// Client fetches pages of the jobs listing.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	log      logger.Logger
}

// NewClient builds a client for endpoint. timeout <= 0 leaves the transport
// default in place (no overall deadline).
func NewClient(endpoint string, timeout time.Duration, log logger.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid jobs endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid jobs endpoint %q: scheme must be http or https", endpoint)
	}

	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}

	return &Client{
		endpoint: u,
		http:     hc,
		log:      log,
	}, nil
}

// FetchPage issues GET <endpoint>?page=<n>. Errors are *NetworkError,
// *HTTPStatusError or *ParseError.
func (c *Client) FetchPage(ctx context.Context, page int) (Page, error) {
	log := c.log.With(
		logger.String("fetch_id", uuid.NewString()),
		logger.Int("page", page))

	u := *c.endpoint
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	log.Debug("fetching jobs page", logger.String("url", u.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("jobs request failed", logger.Error(err))
		return Page{}, &NetworkError{Err: err}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Warn("jobs API returned an error status", logger.Int("status", resp.StatusCode))
		return Page{}, &HTTPStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	results, err := decodeResults(body)
	if err != nil {
		log.Warn("failed to parse jobs page", logger.Error(err))
		return Page{}, &ParseError{Err: err}
	}

	p := Page{
		RawCount: len(results),
		Jobs:     domain.FilterValid(results),
	}

	log.Info("fetched jobs page",
		logger.Int("raw", p.RawCount),
		logger.Int("valid", len(p.Jobs)),
		logger.Duration("duration", time.Since(start)))

	return p, nil
}

// decodeResults requires a JSON object body. A missing or null "results" is
// an empty page; a "results" that is not an array is a parse error.
func decodeResults(body []byte) ([]json.RawMessage, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
