package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultLineAPI = "https://api.line.me/v2/bot/message/broadcast"

// LineNotifier broadcasts a text message to every follower of a LINE bot.
type LineNotifier struct {
	ChannelToken string
	APIURL       string
	Client       *http.Client
}

// NewLineNotifier creates a notifier for the LINE Messaging API broadcast endpoint.
func NewLineNotifier(channelToken, apiURL, proxyURL string) *LineNotifier {
	if apiURL == "" {
		apiURL = defaultLineAPI
	}
	return &LineNotifier{
		ChannelToken: channelToken,
		APIURL:       apiURL,
		Client:       newHTTPClient(proxyURL, 10*time.Second),
	}
}

func (l *LineNotifier) Name() string { return "line" }

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (l *LineNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(struct {
		Messages []lineMessage `json:"messages"`
	}{Messages: []lineMessage{{Type: "text", Text: text}}})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.ChannelToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
