package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultPageSize = 100
	defaultMinDelay = 500 * time.Millisecond
	defaultRetries  = 3
)

// Client fetches ledger data over HTTP. Requests are spaced by a minimum
// delay to respect the service's rate limits, and retried with exponential
// backoff on 429 and 5xx responses.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	minDelay   time.Duration
	maxRetries int
	lastReq    time.Time
}

// NewClient builds a Client for the given service base URL, authenticating
// every request with the bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		minDelay:   defaultMinDelay,
		maxRetries: defaultRetries,
	}
}

func (c *Client) throttle(ctx context.Context) error {
	if wait := c.minDelay - time.Since(c.lastReq); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastReq = time.Now()
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := c.throttle(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%s: status %d", endpoint, resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("%s: status %d: %s", endpoint, resp.StatusCode, body)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%s: decode response: %w", endpoint, err)
		}
		return nil
	}
	return fmt.Errorf("%s: retries exhausted: %w", endpoint, lastErr)
}

// CurrentUser fetches the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (RawUser, error) {
	var body struct {
		User RawUser `json:"user"`
	}
	if err := c.get(ctx, "get_current_user", nil, &body); err != nil {
		return RawUser{}, err
	}
	return body.User, nil
}

// Groups fetches all groups.
func (c *Client) Groups(ctx context.Context) ([]RawGroup, error) {
	var body struct {
		Groups []RawGroup `json:"groups"`
	}
	if err := c.get(ctx, "get_groups", nil, &body); err != nil {
		return nil, err
	}
	return body.Groups, nil
}

// Friends fetches the user's friend list.
func (c *Client) Friends(ctx context.Context) ([]RawUser, error) {
	var body struct {
		Friends []RawUser `json:"friends"`
	}
	if err := c.get(ctx, "get_friends", nil, &body); err != nil {
		return nil, err
	}
	return body.Friends, nil
}

// Expenses fetches every expense, walking offset pagination until a short
// page signals the end.
func (c *Client) Expenses(ctx context.Context) ([]RawExpense, error) {
	var all []RawExpense
	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(defaultPageSize))
		params.Set("offset", strconv.Itoa(offset))

		var body struct {
			Expenses []RawExpense `json:"expenses"`
		}
		if err := c.get(ctx, "get_expenses", params, &body); err != nil {
			return nil, err
		}
		if len(body.Expenses) == 0 {
			break
		}
		all = append(all, body.Expenses...)
		if len(body.Expenses) < defaultPageSize {
			break
		}
		offset += len(body.Expenses)
	}
	return all, nil
}

// FetchAll collects a full Snapshot: current user, groups, friends, and all
// expenses.
func (c *Client) FetchAll(ctx context.Context) (*Snapshot, error) {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	groups, err := c.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	friends, err := c.Friends(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch friends: %w", err)
	}
	expenses, err := c.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return &Snapshot{
		CurrentUser: user,
		Groups:      groups,
		Friends:     friends,
		Expenses:    expenses,
	}, nil
}
