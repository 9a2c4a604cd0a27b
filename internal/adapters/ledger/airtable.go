package ledger

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
	"time"

	"github.com/sony/gobreaker"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
	"github.com/brian-reel/airtable-heroku/pkg/metrics"
)

const (
	defaultBaseURL  = "https://api.airtable.com"
	defaultPageSize = 100
	maxPageSize     = 100
	defaultTimeout  = 30 * time.Second
	createdLayout   = time.RFC3339Nano
)

// Client is a Store backed by one Airtable table.
type Client struct {
	http            *http.Client
	baseURL         string
	baseID          string
	table           string
	token           string
	codec           *Codec
	pageSize        int
	readRetries     int
	backoff         time.Duration
	breakerFailures uint32
	breaker         *gobreaker.CircuitBreaker
	log             logger.Logger
}

// NewClient creates a client for table in base baseID.
func NewClient(baseID, table, token string, codec *Codec, opts ...Option) *Client {
	c := &Client{
		http:            &http.Client{Timeout: defaultTimeout},
		baseURL:         defaultBaseURL,
		baseID:          baseID,
		table:           table,
		token:           token,
		codec:           codec,
		pageSize:        defaultPageSize,
		readRetries:     3,
		backoff:         time.Second,
		breakerFailures: 5,
		log:             logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger:" + table,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.UpdateBreakerState(int(to))
			c.log.Warn(context.Background(), "ledger circuit breaker state changed",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return c
}

type apiRecord struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []apiRecord `json:"records"`
	Offset  string      `json:"offset"`
}

type writeRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast,omitempty"`
}

func (c *Client) tableURL() string {
	return c.baseURL + "/v0/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
}

func (c *Client) record(r apiRecord) model.LedgerRecord {
	rec := model.LedgerRecord{ID: r.ID, Fields: c.codec.Decode(r.Fields)}
	if t, err := time.Parse(createdLayout, r.CreatedTime); err == nil {
		rec.CreatedAt = t.UTC()
	}
	return rec
}

// FetchAll pages through the table. A failed page is retried with backoff
// on rate limiting, server errors and transport errors.
func (c *Client) FetchAll(ctx context.Context, fields []model.Field) ([]model.LedgerRecord, error) {
	var out []model.LedgerRecord
	offset := ""
	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(c.pageSize))
		for _, col := range c.codec.Columns(fields) {
			q.Add("fields[]", col)
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		var page listResponse
		if err := c.readWithRetry(ctx, c.tableURL()+"?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		for _, r := range page.Records {
			out = append(out, c.record(r))
		}
		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

func (c *Client) readWithRetry(ctx context.Context, u string, dst any) error {
	var err error
	for attempt := 0; attempt <= c.readRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordLedgerRetry()
			c.log.Warn(ctx, "retrying ledger read",
				logger.Int("attempt", attempt),
				logger.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		err = c.do(ctx, http.MethodGet, u, nil, dst)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// Update patches one record. Writes are attempted once.
func (c *Client) Update(ctx context.Context, recordID string, changes []model.Change) (model.LedgerRecord, error) {
	var r apiRecord
	body := writeRequest{Fields: c.codec.Encode(changes), Typecast: true}
	if err := c.do(ctx, http.MethodPatch, c.tableURL()+"/"+url.PathEscape(recordID), body, &r); err != nil {
		return model.LedgerRecord{}, err
	}
	return c.record(r), nil
}

// Create inserts one record. Writes are attempted once.
func (c *Client) Create(ctx context.Context, changes []model.Change) (model.LedgerRecord, error) {
	var r apiRecord
	body := writeRequest{Fields: c.codec.Encode(changes), Typecast: true}
	if err := c.do(ctx, http.MethodPost, c.tableURL(), body, &r); err != nil {
		return model.LedgerRecord{}, err
	}
	return c.record(r), nil
}

// do sends one request through the breaker. Only rate limiting, server
// errors and transport errors count against the breaker.
func (c *Client) do(ctx context.Context, method, u string, body, dst any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode ledger request: %w", err)
		}
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.RecordLedgerRequest(method, "error")
			return nil, err
		}
		defer resp.Body.Close()
		metrics.RecordLedgerRequest(method, strconv.Itoa(resp.StatusCode))

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := decodeError(resp.StatusCode, data)
			if apiErr.Retryable() {
				return nil, apiErr
			}
			return apiErr, nil
		}
		return data, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	switch v := res.(type) {
	case *APIError:
		if v.Status == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, v)
		}
		return v
	case []byte:
		if dst == nil {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("decode ledger response: %w", err)
		}
	}
	return nil
}

// decodeError reads both error shapes the API uses:
// {"error":{"type":"...","message":"..."}} and {"error":"NOT_FOUND"}.
func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Type: http.StatusText(status)}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(data, &envelope) != nil || len(envelope.Error) == 0 {
		return apiErr
	}
	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &detailed) == nil {
		if detailed.Type != "" {
			apiErr.Type = detailed.Type
		}
		apiErr.Message = detailed.Message
		return apiErr
	}
	var code string
	if json.Unmarshal(envelope.Error, &code) == nil && code != "" {
		apiErr.Type = code
	}
	return apiErr
}
