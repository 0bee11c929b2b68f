// Package lichess is a minimal read-only client for the public lichess API,
// covering the two endpoints this tool needs: per-user rating history and
// tournament result listings. Requests are sequential and spaced out to stay
// inside the API's rate limits.
package lichess

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/patzer/internal/domain/model"
	"github.com/okian/patzer/pkg/logger"
)

// Default client configuration constants.
const (
	defaultBaseURL = "https://lichess.org"
	defaultTimeout = 30 * time.Second
	// defaultPause spaces sequential requests apart.
	defaultPause = 1 * time.Second
	// defaultBackoff is how long to wait after a 429 before the single
	// retry. The API documents a one minute penalty window.
	defaultBackoff = 61 * time.Second

	// puzzlePerfName is the rating history entry holding puzzle ratings.
	puzzlePerfName = "Puzzles"
)

// Client issues rate-limited GET requests against the lichess API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pause      time.Duration
	backoff    time.Duration
	lastCall   time.Time
}

// New creates a Client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		pause:      defaultPause,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ratingHistoryEntry mirrors one element of the rating-history response.
// Points are [year, month, day, rating] with a ZERO-BASED month; the API
// docs state "month starts at zero (January)".
type ratingHistoryEntry struct {
	Name   string  `json:"name"`
	Points [][]int `json:"points"`
}

// PuzzleHistory fetches a user's puzzle rating history. A user that exists
// but has never solved puzzles yields an empty record and no error, so
// callers can negatively cache them. Unknown users yield ErrUserNotFound.
func (c *Client) PuzzleHistory(ctx context.Context, username string) (model.PerformanceRecord, error) {
	url := fmt.Sprintf("%s/api/user/%s/rating-history", c.baseURL, username)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rating history for %q: %w", username, err)
	}

	var entries []ratingHistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("rating history for %q: %w: %v", username, ErrMalformedResponse, err)
	}

	for _, entry := range entries {
		if entry.Name != puzzlePerfName {
			continue
		}
		record := make(model.PerformanceRecord, 0, len(entry.Points))
		for _, p := range entry.Points {
			if len(p) != 4 {
				return nil, fmt.Errorf("rating history for %q: %w: point has %d fields", username, ErrMalformedResponse, len(p))
			}
			record = append(record, model.Snapshot{
				Date:   model.NewDate(p[0], time.Month(p[1]+1), p[2]),
				Rating: p[3],
			})
		}
		return record, nil
	}
	// No puzzle perf at all.
	return nil, nil
}

// tournamentListing mirrors the /api/tournament response, which groups
// tournaments by schedule state.
type tournamentListing struct {
	Created  []tournamentRef `json:"created"`
	Started  []tournamentRef `json:"started"`
	Finished []tournamentRef `json:"finished"`
}

type tournamentRef struct {
	ID string `json:"id"`
}

// tournamentResult is one NDJSON line of a tournament's results stream.
type tournamentResult struct {
	Username string `json:"username"`
}

// TournamentUsers collects the distinct usernames appearing in the results
// of currently listed tournaments.
func (c *Client) TournamentUsers(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.baseURL+"/api/tournament")
	if err != nil {
		return nil, fmt.Errorf("tournament listing: %w", err)
	}

	var listing tournamentListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("tournament listing: %w: %v", ErrMalformedResponse, err)
	}

	seen := make(map[string]bool)
	var users []string
	for _, bucket := range [][]tournamentRef{listing.Created, listing.Started, listing.Finished} {
		for _, t := range bucket {
			names, err := c.tournamentResultUsers(ctx, t.ID)
			if err != nil {
				// A single bad tournament should not sink the whole crawl.
				logger.Get().Warn(ctx, "skipping tournament results",
					logger.String("tournament", t.ID), logger.Error(err))
				continue
			}
			for _, name := range names {
				if !seen[name] {
					seen[name] = true
					users = append(users, name)
				}
			}
			logger.Get().Debug(ctx, "collected tournament users",
				logger.String("tournament", t.ID), logger.Int("total", len(users)))
		}
	}
	return users, nil
}

// tournamentResultUsers streams one tournament's NDJSON results.
func (c *Client) tournamentResultUsers(ctx context.Context, id string) ([]string, error) {
	resp, err := c.getStream(ctx, fmt.Sprintf("%s/api/tournament/%s/results", c.baseURL, id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var users []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var result tournamentResult
		if err := json.Unmarshal(line, &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		users = append(users, result.Username)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading results stream: %w", err)
	}
	return users, nil
}

// get performs a GET via getStream and drains the body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.getStream(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// getStream performs a GET with the 404/429 handling shared by every
// endpoint and returns the open response on 200; the caller closes the
// body. On 429 it sleeps the backoff once and retries.
func (c *Client) getStream(ctx context.Context, url string) (*http.Response, error) {
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		discard(resp)
		logger.Get().Info(ctx, "rate limited, backing off",
			logger.String("wait", c.backoff.String()))
		if err := sleep(ctx, c.backoff); err != nil {
			return nil, err
		}
		resp, err = c.doGet(ctx, url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			discard(resp)
			return nil, ErrRateLimited
		}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		discard(resp)
		return nil, ErrUserNotFound
	default:
		status := resp.StatusCode
		discard(resp)
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, status)
	}
}

// doGet spaces requests c.pause apart before issuing the GET.
func (c *Client) doGet(ctx context.Context, url string) (*http.Response, error) {
	if wait := c.pause - time.Since(c.lastCall); wait > 0 {
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	c.lastCall = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// readAll drains the response body.
func readAll(resp *http.Response) ([]byte, error) {
	return io.ReadAll(resp.Body)
}

// discard drains and closes a body we will not read, so the connection can
// be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// sleep waits for d, honoring ctx cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
