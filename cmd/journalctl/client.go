package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"journal-live/domain"
	"net/http"
	"strings"
	"time"
)

// apiClient calls the internal API of a journal server.
type apiClient struct {
	baseURL string
	key     string
	http    *http.Client
}

func newAPIClient(settings Settings) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(settings.ServerURL, "/"),
		key:     settings.InternalKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Success bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Msg  string `json:"message"`
		Type string `json:"type"`
	} `json:"error"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var failure apiError
		if json.Unmarshal(data, &failure) == nil && failure.Error != nil {
			return fmt.Errorf("%s %s: %d %s", method, path, failure.Error.Code, failure.Error.Msg)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *apiClient) SetParticipants(ctx context.Context, journalID domain.JournalID, participants domain.Participants) error {
	return c.do(ctx, http.MethodPut, "/internal/journals/"+journalID.String()+"/participants", participants, nil)
}

func (c *apiClient) Pairings(ctx context.Context) ([]domain.Pairing, error) {
	var resp struct {
		Pairings []domain.Pairing `json:"pairings"`
	}
	err := c.do(ctx, http.MethodGet, "/internal/pairings", nil, &resp)
	return resp.Pairings, err
}

func (c *apiClient) BroadcastMessage(ctx context.Context, journalID domain.JournalID, message domain.Message) error {
	return c.do(ctx, http.MethodPost, "/internal/journals/"+journalID.String()+"/messages", message, nil)
}

func (c *apiClient) Stats(ctx context.Context) (domain.LiveStats, error) {
	var resp struct {
		Stats domain.LiveStats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/internal/stats", nil, &resp)
	return resp.Stats, err
}
