// Package gateway talks to the donation server's REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"donationfeed/internal/domain"
	"donationfeed/internal/infra"
	"donationfeed/internal/metrics"
)

const (
	endpointUserDonations = "user_donations"
	endpointAllDonations  = "all_donations"
	endpointAnnouncements = "announcements"
	endpointApprove       = "approve"

	// maxResponseBytes guards against runaway payloads from a misbehaving server.
	maxResponseBytes = 8 << 20
)

// Options configures the donation server client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	// Location interprets zone-less server timestamps. Defaults to UTC.
	Location *time.Location
}

// Client performs HTTP calls against the donation server. Donation reads degrade
// to empty results; the announcement read reports failure so callers can fall
// back to the local cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	location   *time.Location
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     infra.LoggerOrDiscard(opts.Logger),
		location:   loc,
	}
}

type donationsEnvelope struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Donations []donationWire `json:"donations"`
}

type donationWire struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"`
	DonationType string  `json:"donationType"`
	Amount       float64 `json:"amount"`
	Message      string  `json:"message"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	ApprovedAt   *string `json:"approvedAt"`
}

type announcementsEnvelope struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message"`
	Announcements *[]announcementWire `json:"announcements"`
}

// announcementWire accepts both the server entity (adminName, datePosted) and
// the cache shape (author, timestamp).
type announcementWire struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Audience   string `json:"audience"`
	Priority   string `json:"priority"`
	Author     string `json:"author"`
	AdminName  string `json:"adminName"`
	Timestamp  string `json:"timestamp"`
	DatePosted string `json:"datePosted"`
}

// FetchUserDonations returns the donations owned by username, or an empty slice
// when the server cannot be read.
func (c *Client) FetchUserDonations(ctx context.Context, username string) []domain.Donation {
	path := "/donations/user/" + url.PathEscape(username)
	return c.fetchDonations(ctx, endpointUserDonations, path)
}

// FetchAllDonations returns every donation, or an empty slice on failure.
func (c *Client) FetchAllDonations(ctx context.Context) []domain.Donation {
	return c.fetchDonations(ctx, endpointAllDonations, "/donations/all")
}

func (c *Client) fetchDonations(ctx context.Context, endpoint, path string) []domain.Donation {
	var env donationsEnvelope
	err := c.getJSON(ctx, endpoint, path, &env)
	if err == nil && !env.Success {
		err = fmt.Errorf("gateway: server reported failure: %s", env.Message)
	}
	var items []domain.Donation
	if err == nil {
		items, err = c.convertDonations(env.Donations)
	}
	if err != nil {
		c.observe(endpoint, "error")
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("gateway: donation fetch failed, using empty result")
		return []domain.Donation{}
	}
	c.observe(endpoint, "ok")
	return items
}

// FetchAnnouncements reads the server announcement board. Any failure is
// returned wrapped in domain.ErrSourceUnavailable; an empty board is a
// successful empty result.
func (c *Client) FetchAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	var env announcementsEnvelope
	err := c.getJSON(ctx, endpointAnnouncements, "/announcements", &env)
	switch {
	case err != nil:
	case !env.Success:
		err = fmt.Errorf("gateway: server reported failure: %s", env.Message)
	case env.Announcements == nil:
		err = errors.New("gateway: announcements missing from response")
	}
	var items []domain.Announcement
	if err == nil {
		items, err = c.convertAnnouncements(*env.Announcements)
	}
	if err != nil {
		c.observe(endpointAnnouncements, "error")
		c.logger.Debug().Err(err).Msg("gateway: announcement source unavailable")
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	c.observe(endpointAnnouncements, "ok")
	return items, nil
}

// ApproveDonation asks the server to approve one donation. It does not retry.
func (c *Client) ApproveDonation(ctx context.Context, id int64) domain.ActionResult {
	if id <= 0 {
		return domain.ActionResult{Success: false, Message: "Invalid donation ID"}
	}
	path := "/donations/" + strconv.FormatInt(id, 10) + "/approve"
	start := time.Now()
	defer func() { metrics.GatewayDuration.WithLabelValues(endpointApprove).Observe(time.Since(start).Seconds()) }()

	var out domain.ActionResult
	status, raw, err := c.do(ctx, http.MethodPut, path)
	if err == nil {
		if decodeErr := json.Unmarshal(raw, &out); decodeErr != nil {
			if status >= 300 {
				err = fmt.Errorf("gateway: status %d: %s", status, strings.TrimSpace(string(raw)))
			} else {
				err = fmt.Errorf("gateway: decode response: %w", decodeErr)
			}
		} else if status >= 300 && out.Success {
			out.Success = false
		}
	}
	if err != nil {
		c.observe(endpointApprove, "error")
		c.logger.Error().Err(err).Int64("donation_id", id).Msg("gateway: approve donation failed")
		return domain.ActionResult{Success: false, Message: "Error approving donation"}
	}
	outcome := "ok"
	if !out.Success {
		outcome = "rejected"
	}
	c.observe(endpointApprove, outcome)
	c.logger.Info().Int64("donation_id", id).Bool("success", out.Success).Msg("gateway: approve donation")
	return out
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	start := time.Now()
	defer func() { metrics.GatewayDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	status, raw, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("gateway: status %d: %s", status, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("gateway: read response: %w", err)
	}
	return resp.StatusCode, bytes.TrimSpace(raw), nil
}

func (c *Client) observe(endpoint, outcome string) {
	metrics.GatewayRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (c *Client) convertDonations(in []donationWire) ([]domain.Donation, error) {
	out := make([]domain.Donation, 0, len(in))
	for _, w := range in {
		createdAt, err := parseServerTime(w.CreatedAt, c.location)
		if err != nil {
			return nil, fmt.Errorf("gateway: donation %d createdAt: %w", w.ID, err)
		}
		d := domain.Donation{
			ID:           w.ID,
			Username:     w.Username,
			FullName:     w.FullName,
			Email:        w.Email,
			DonationType: domain.DonationType(w.DonationType),
			Amount:       w.Amount,
			Message:      w.Message,
			Status:       domain.DonationStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
			CreatedAt:    createdAt,
		}
		if w.ApprovedAt != nil && strings.TrimSpace(*w.ApprovedAt) != "" {
			approvedAt, err := parseServerTime(*w.ApprovedAt, c.location)
			if err != nil {
				return nil, fmt.Errorf("gateway: donation %d approvedAt: %w", w.ID, err)
			}
			d.ApprovedAt = &approvedAt
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) convertAnnouncements(in []announcementWire) ([]domain.Announcement, error) {
	out := make([]domain.Announcement, 0, len(in))
	for _, w := range in {
		rawTime := firstNonEmpty(w.Timestamp, w.DatePosted)
		ts, err := parseServerTime(rawTime, c.location)
		if err != nil {
			return nil, fmt.Errorf("gateway: announcement %q timestamp: %w", w.Title, err)
		}
		out = append(out, domain.Announcement{
			Title:     w.Title,
			Message:   w.Message,
			Audience:  w.Audience,
			Priority:  w.Priority,
			Author:    firstNonEmpty(w.Author, w.AdminName),
			Timestamp: ts,
		})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
