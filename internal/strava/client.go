package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/2beens/stravalens/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://www.strava.com/api/v3"

	DefaultPage    = 1
	DefaultPerPage = 30
)

// Client performs authenticated reads against the strava API for a single
// access token. It classifies failures and never retries on its own.
type Client struct {
	baseURL        string
	accessToken    string
	httpClient     *http.Client
	metricsManager *metrics.Manager
}

func NewClient(
	baseURL, accessToken string,
	httpClient *http.Client,
	metricsManager *metrics.Manager,
) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:        baseURL,
		accessToken:    accessToken,
		httpClient:     httpClient,
		metricsManager: metricsManager,
	}
}

func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	athlete := &Athlete{}
	if err := c.get(ctx, "/athlete", nil, athlete); err != nil {
		return nil, err
	}
	return athlete, nil
}

func (c *Client) GetActivities(ctx context.Context, page, perPage int) ([]Activity, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.get(ctx, "/athlete/activities", query, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *Client) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	activity := &Activity{}
	if err := c.get(ctx, fmt.Sprintf("/activities/%d", id), nil, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create strava request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.countCall(path, "network_error")
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		c.countCall(path, strconv.Itoa(resp.StatusCode))
		return err
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countCall(path, "read_error")
		return fmt.Errorf("read strava response bytes: %w", err)
	}

	if err := json.Unmarshal(respBytes, target); err != nil {
		c.countCall(path, "unmarshal_error")
		return fmt.Errorf("unmarshal strava response bytes: %w", err)
	}

	log.Tracef("strava api [%s]: ok", path)
	c.countCall(path, "ok")

	return nil
}

func classifyStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case statusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &RemoteError{StatusCode: statusCode}
	}
}

func (c *Client) countCall(path, outcome string) {
	if c.metricsManager == nil {
		return
	}
	c.metricsManager.CounterStravaAPICalls.With(prometheus.Labels{
		"endpoint": path,
		"outcome":  outcome,
	}).Inc()
}
