// Package ledger provides the outbound client for the external accounting
// system that approved timesheets are synced into.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultRequestTimeout = 15 * time.Second
	submitPath            = "/api/v1/timesheet-entries"
	maxErrorBodyBytes     = 4 << 10
)

// SubmissionError is a classified failure from the accounting API. Rate
// limiting and server-side failures are transient; other client errors mean
// the record itself was rejected and will not succeed on retry.
type SubmissionError struct {
	StatusCode int
	Message    string
}

func (e *SubmissionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ledger submission failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("ledger submission failed: status %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether a retry may succeed.
func (e *SubmissionError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOptions groups configuration for the ledger client.
type ClientOptions struct {
	BaseURL      string        // Required: accounting API base URL
	TokenURL     string        // Required: OAuth2 token endpoint
	ClientID     string        // Required: OAuth2 client id
	ClientSecret string        // Required: OAuth2 client secret
	Scopes       []string      // Optional: OAuth2 scopes
	Timeout      time.Duration // Optional: per-request timeout (default 15s)
	Logger       *slog.Logger  // Optional: structured logger
}

// Client submits timesheet entries to the accounting API using OAuth2
// client-credentials authentication.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs a new ledger client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("ledger base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid ledger base URL: %w", err)
	}
	if opts.TokenURL == "" || opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("ledger OAuth2 credentials are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cc := clientcredentials.Config{
		TokenURL:     opts.TokenURL,
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Scopes:       opts.Scopes,
	}
	httpClient := cc.Client(context.Background())
	httpClient.Timeout = opts.Timeout

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		logger:  opts.Logger.With("component", "ledger_client"),
	}, nil
}

// timesheetEntry is the wire shape the accounting API accepts.
type timesheetEntry struct {
	SourceID   string  `json:"source_id"`
	ProjectRef string  `json:"project_ref"`
	ClientRef  string  `json:"client_ref"`
	UserRef    string  `json:"user_ref"`
	WorkDate   string  `json:"work_date"`
	Hours      float64 `json:"hours"`
	BillRate   float64 `json:"bill_rate"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// SubmitTimesheet posts one record to the accounting API and returns the
// external identifier it was assigned.
func (c *Client) SubmitTimesheet(
	ctx context.Context,
	rec model.TimesheetRecord,
) (core.SubmissionResult, error) {
	body, err := json.Marshal(timesheetEntry{
		SourceID:   rec.ID,
		ProjectRef: rec.ProjectRef,
		ClientRef:  rec.ClientRef,
		UserRef:    rec.UserRef,
		WorkDate:   rec.WorkDate.UTC().Format("2006-01-02"),
		Hours:      rec.Hours,
		BillRate:   rec.BillRate,
	})
	if err != nil {
		return core.SubmissionResult{}, fmt.Errorf("marshal timesheet entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return core.SubmissionResult{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.SubmissionResult{}, fmt.Errorf("submit timesheet: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.SubmissionResult{}, c.submissionError(ctx, resp, rec.ID)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.SubmissionResult{}, fmt.Errorf("decode submit response: %w", err)
	}
	if out.ID == "" {
		return core.SubmissionResult{}, errors.New("accounting API returned empty entry id")
	}
	return core.SubmissionResult{ExternalID: out.ID}, nil
}

func (c *Client) submissionError(ctx context.Context, resp *http.Response, recordID string) error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if readErr != nil {
		raw = nil
	}
	msg := extractErrorMessage(raw)

	subErr := &SubmissionError{StatusCode: resp.StatusCode, Message: msg}
	if subErr.Transient() {
		c.logger.WarnContext(ctx, "accounting API rejected submission transiently",
			"record_id", recordID,
			"status", resp.StatusCode)
	} else {
		c.logger.InfoContext(ctx, "accounting API rejected record",
			"record_id", recordID,
			"status", resp.StatusCode,
			"message", msg)
	}
	return subErr
}

// extractErrorMessage pulls a human-readable message from an API error body,
// falling back to the raw body when it is not the documented JSON shape.
func extractErrorMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

var _ core.AccountingClient = (*Client)(nil)
