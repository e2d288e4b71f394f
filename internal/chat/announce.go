package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freelance-crm/relation-bot/internal/blocks"
)

// DefaultAPIURL is the chat platform's web API root
const DefaultAPIURL = "https://slack.com/api"

// Announcer posts bot messages to a fixed channel through the chat platform's web API
type Announcer struct {
	apiURL     string
	token      string
	channel    string
	httpClient *http.Client
}

// NewAnnouncer creates an Announcer. An empty apiURL uses DefaultAPIURL.
func NewAnnouncer(apiURL, token, channel string, timeout time.Duration) *Announcer {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Announcer{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		channel:    channel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type postMessageRequest struct {
	Channel string         `json:"channel"`
	Text    string         `json:"text"`
	Blocks  []blocks.Block `json:"blocks,omitempty"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Announce posts msg to the configured channel
func (a *Announcer) Announce(ctx context.Context, msg blocks.Message) error {
	body, err := json.Marshal(postMessageRequest{Channel: a.channel, Text: msg.Text, Blocks: msg.Blocks})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("chat api returned status %d", resp.StatusCode)
	}

	// The web API reports failures in the body with a 200 status
	var out postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode chat api response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("chat api rejected message: %s", out.Error)
	}
	return nil
}
