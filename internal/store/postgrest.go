package store

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
)

// PostgREST talks to the table through a Supabase-style REST API.
type PostgREST struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

func NewPostgREST(baseURL, apiKey, table string) *PostgREST {
	if table == "" {
		table = DefaultTable
	}
	return &PostgREST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *PostgREST) endpoint() string {
	return c.baseURL + "/rest/v1/" + url.PathEscape(c.table)
}

func (c *PostgREST) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Insert posts one row and returns the id from the representation.
func (c *PostgREST) Insert(ctx context.Context, rec Record) (int64, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return 0, writeError(rec, fmt.Errorf("marshal row: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return 0, writeError(rec, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Prefer", "return=representation")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, writeError(rec, fmt.Errorf("insert: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		we := writeError(rec, fmt.Errorf("%s", strings.TrimSpace(string(respBody))))
		we.Status = resp.StatusCode
		var ae apiError
		if json.Unmarshal(respBody, &ae) == nil && ae.Message != "" {
			we.Code = ae.Code
			we.Err = errors.New(ae.Message)
		}
		return 0, we
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return 0, writeError(rec, fmt.Errorf("decode representation: %w", err))
	}
	if len(rows) == 0 {
		return 0, writeError(rec, errors.New("empty representation"))
	}
	return rows[0].ID, nil
}

// Existing selects id and order_num for the document.
func (c *PostgREST) Existing(ctx context.Context, documentID int64) (map[int]int64, error) {
	q := url.Values{}
	q.Set("select", "id,order_num")
	q.Set("document_id", "eq."+strconv.FormatInt(documentID, 10))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("select existing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("select existing: status %d: %s", resp.StatusCode, string(respBody))
	}

	var rows []struct {
		ID       int64 `json:"id"`
		OrderNum int   `json:"order_num"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode existing: %w", err)
	}
	out := make(map[int]int64, len(rows))
	for _, r := range rows {
		out[r.OrderNum] = r.ID
	}
	return out, nil
}

func (c *PostgREST) Close() {
	c.httpClient.CloseIdleConnections()
}
