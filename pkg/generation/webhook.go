package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient dispatches a chat message to the external workflow that
// produces the AI reply. The call is fire-and-forget: a 2xx response only
// means the workflow accepted the job; the reply is written to the history
// table by the workflow itself, never returned here.
type WebhookClient struct {
	url    string
	client *http.Client
}

func NewWebhookClient(url string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type invokePayload struct {
	ChatInput string `json:"chatInput"`
	SessionId string `json:"sessionId"`
	UserId    string `json:"userId"`
}

func (c *WebhookClient) Invoke(ctx context.Context, content, sessionID, userID string) error {
	body, err := json.Marshal(invokePayload{
		ChatInput: content,
		SessionId: sessionID,
		UserId:    userID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("generation webhook unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("generation webhook rejected message: status %d", resp.StatusCode)
	}
	return nil
}
