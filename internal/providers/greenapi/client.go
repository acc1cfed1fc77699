package greenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Client talks to the GREEN-API WhatsApp gateway. Addresses on the wire are
// chat ids of the form "<digits>@c.us".
type Client struct {
	IDInstance string
	APIToken   string
	HTTP       *http.Client

	BaseURL string
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type sendFileRequest struct {
	ChatID   string `json:"chatId"`
	URLFile  string `json:"urlFile"`
	FileName string `json:"fileName"`
	Caption  string `json:"caption,omitempty"`
}

type sendResponse struct {
	IDMessage string `json:"idMessage"`
}

type contactInfoRequest struct {
	ChatID string `json:"chatId"`
}

type contactInfoResponse struct {
	Name        string `json:"name"`
	ContactName string `json:"contactName"`
}

func (c *Client) SendText(ctx context.Context, to, text string) (string, error) {
	var out sendResponse
	err := c.post(ctx, "sendMessage", sendMessageRequest{ChatID: chatID(to), Message: text}, &out)
	if err != nil {
		return "", err
	}
	if out.IDMessage == "" {
		return "", errors.New("greenapi: missing idMessage in response")
	}
	return out.IDMessage, nil
}

func (c *Client) SendMedia(ctx context.Context, to, mediaURL, filename, caption string) (string, error) {
	var out sendResponse
	err := c.post(ctx, "sendFileByUrl", sendFileRequest{
		ChatID:   chatID(to),
		URLFile:  mediaURL,
		FileName: filename,
		Caption:  caption,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.IDMessage == "" {
		return "", errors.New("greenapi: missing idMessage in response")
	}
	return out.IDMessage, nil
}

func (c *Client) GetContactName(ctx context.Context, to string) (string, error) {
	var out contactInfoResponse
	if err := c.post(ctx, "getContactInfo", contactInfoRequest{ChatID: chatID(to)}, &out); err != nil {
		return "", err
	}
	if out.Name != "" {
		return out.Name, nil
	}
	return out.ContactName, nil
}

func (c *Client) post(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = "https://api.green-api.com"
	}
	endpoint := base + "/waInstance" + c.IDInstance + "/" + method + "/" + c.APIToken

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("greenapi " + method + " failed: " + strings.TrimSpace(string(b)))
	}
	return json.Unmarshal(b, out)
}

func chatID(to string) string { return to + "@c.us" }
