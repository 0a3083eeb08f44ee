package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const linePushEndpoint = "https://api.line.me/v2/bot/message/push"

// LineSink pushes text messages through the LINE Messaging API.
type LineSink struct {
	token    string
	endpoint string
	client   *http.Client
}

func NewLineSink(token string) *LineSink {
	return &LineSink{
		token:    token,
		endpoint: linePushEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type linePush struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *LineSink) Deliver(ctx context.Context, to Recipient, msg Message) error {
	if to.LineID == "" {
		return ErrNotAddressable
	}
	return s.Push(ctx, to.LineID, msg.Subject+"\n"+msg.Body)
}

// Push sends one text message to a LINE user, group or room id.
func (s *LineSink) Push(ctx context.Context, lineID, text string) error {
	body, err := json.Marshal(linePush{
		To:       lineID,
		Messages: []lineMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("encode line push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build line push: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line push: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
