package ultramsg

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to the UltraMsg WhatsApp gateway. UltraMsg takes form-encoded
// requests and bare international numbers.
type Client struct {
	InstanceID string
	Token      string
	HTTP       *http.Client

	BaseURL string
}

type sendResponse struct {
	Sent    string          `json:"sent"`
	Message string          `json:"message"`
	ID      json.RawMessage `json:"id"`
}

type contactResponse struct {
	Name     string `json:"name"`
	Pushname string `json:"pushname"`
}

func (c *Client) SendText(ctx context.Context, to, text string) (string, error) {
	form := url.Values{}
	form.Set("to", to)
	form.Set("body", text)
	return c.send(ctx, "messages/chat", form)
}

func (c *Client) SendMedia(ctx context.Context, to, mediaURL, filename, caption string) (string, error) {
	form := url.Values{}
	form.Set("to", to)
	form.Set("caption", caption)
	form.Set("filename", filename)
	form.Set("document", mediaURL)
	return c.send(ctx, "messages/document", form)
}

func (c *Client) GetContactName(ctx context.Context, to string) (string, error) {
	q := url.Values{}
	q.Set("token", c.Token)
	q.Set("chatId", to+"@c.us")

	endpoint := c.base() + "/" + c.InstanceID + "/contacts/contact?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New("ultramsg contact lookup failed: " + strings.TrimSpace(string(b)))
	}

	var out contactResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", err
	}
	if out.Name != "" {
		return out.Name, nil
	}
	return out.Pushname, nil
}

func (c *Client) send(ctx context.Context, path string, form url.Values) (string, error) {
	form.Set("token", c.Token)

	endpoint := c.base() + "/" + c.InstanceID + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	var out sendResponse
	_ = json.Unmarshal(b, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Sent != "true" {
		if out.Message != "" {
			return "", errors.New("ultramsg send failed: " + out.Message)
		}
		return "", errors.New("ultramsg send failed: " + strings.TrimSpace(string(b)))
	}

	// id comes back as a number for chat sends and a string elsewhere.
	return strings.Trim(string(out.ID), `"`), nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = "https://api.ultramsg.com"
	}
	return base
}
