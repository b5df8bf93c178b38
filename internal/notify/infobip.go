// Package notify contains clients for the Infobip messaging API, used to
// deliver password-reset codes by email and SMS.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const clientTimeout = 15 * time.Second

// Client calls the Infobip HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	emailFrom  string
	smsFrom    string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, emailFrom, smsFrom string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		emailFrom:  emailFrom,
		smsFrom:    smsFrom,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// SendEmail delivers an email with plaintext and HTML bodies via
// POST /email/3/send (multipart form).
func (c *Client) SendEmail(ctx context.Context, to, subject, text, html string) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		"from":    c.emailFrom,
		"to":      to,
		"subject": subject,
		"text":    text,
		"html":    html,
	}
	if html == "" {
		fields["html"] = fmt.Sprintf("<div>%s</div>", text)
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to build email form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to build email form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email/3/send", &body)
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "App "+c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	return c.do(req, "email")
}

type smsDestination struct {
	To string `json:"to"`
}

type smsMessage struct {
	Destinations []smsDestination `json:"destinations"`
	From         string           `json:"from"`
	Text         string           `json:"text"`
}

type smsRequest struct {
	Messages []smsMessage `json:"messages"`
}

// SendSMS delivers a text message via POST /sms/2/text/advanced.
func (c *Client) SendSMS(ctx context.Context, to, text string) error {
	payload := smsRequest{
		Messages: []smsMessage{{
			Destinations: []smsDestination{{To: to}},
			From:         c.smsFrom,
			Text:         text,
		}},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms/2/text/advanced", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Authorization", "App "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "sms")
}

func (c *Client) do(req *http.Request, kind string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s request failed: status %d: %s", kind, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
