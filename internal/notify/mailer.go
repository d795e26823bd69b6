package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer delivers a rendered notification to a recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// GatewayMailer posts mail to an HTTP mail gateway.
type GatewayMailer struct {
	client *http.Client
	url    string
	from   string
}

func NewGatewayMailer(gatewayURL, from string) *GatewayMailer {
	return &GatewayMailer{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    gatewayURL,
		from:   from,
	}
}

type mailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m *GatewayMailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(mailRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("mail gateway returned %d", res.StatusCode)
	}
	return nil
}
