package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prepwise/models"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	DefaultBaseURL = "https://api.mem0.ai"
	memoriesPath   = "/v1/memories/"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4096
)

// Client talks to the hosted mem0 platform. mem0 distils facts from the
// messages it receives, so entries read back carry no role.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type addRequest struct {
	Messages []models.Message `json:"messages"`
	UserID   string           `json:"user_id"`
	AgentID  string           `json:"agent_id,omitempty"`
}

type memoryRecord struct {
	ID        string    `json:"id"`
	Memory    string    `json:"memory"`
	UserID    string    `json:"user_id"`
	AgentID   string    `json:"agent_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) Add(ctx context.Context, sessionID, agentID string, messages []models.Message) error {
	body, err := json.Marshal(addRequest{
		Messages: messages,
		UserID:   sessionID,
		AgentID:  agentID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mem0 request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+memoriesPath, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mem0: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	log.Debug().Msgf("[DEBUG] mem0 accepted %d messages for session %s", len(messages), sessionID)
	return nil
}

func (c *Client) GetAll(ctx context.Context, sessionID string) ([]models.MemoryEntry, error) {
	query := url.Values{"user_id": []string{sessionID}}
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+memoriesPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call mem0: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read mem0 response: %w", err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(record memoryRecord, _ int) models.MemoryEntry {
		sessionOf := record.UserID
		if sessionOf == "" {
			sessionOf = sessionID
		}
		return models.MemoryEntry{
			ID:        record.ID,
			SessionID: sessionOf,
			AgentID:   record.AgentID,
			Memory:    record.Memory,
			CreatedAt: record.CreatedAt,
		}
	}), nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create mem0 request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// decodeRecords accepts both the bare array and the paginated
// {"results": [...]} shape.
func decodeRecords(body []byte) ([]memoryRecord, error) {
	trimmed := bytes.TrimSpace(body)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		var records []memoryRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode mem0 memories: %w", err)
		}
		return records, nil
	}

	var page struct {
		Results []memoryRecord `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode mem0 memories: %w", err)
	}
	if page.Results == nil {
		return []memoryRecord{}, nil
	}
	return page.Results, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("mem0 returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
