package greenapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendTextPostsChatID(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(sendResponse{IDMessage: "BAE5F4"})
	}))
	defer srv.Close()

	c := &Client{IDInstance: "1101", APIToken: "tok", HTTP: srv.Client(), BaseURL: srv.URL}
	id, err := c.SendText(context.Background(), "972501234567", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "BAE5F4" {
		t.Fatalf("id = %q", id)
	}
	if gotPath != "/waInstance1101/sendMessage/tok" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody.ChatID != "972501234567@c.us" || gotBody.Message != "hello" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestSendTextSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"instance not authorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &Client{IDInstance: "1101", APIToken: "tok", HTTP: srv.Client(), BaseURL: srv.URL}
	_, err := c.SendText(context.Background(), "972501234567", "hello")
	if err == nil || !strings.Contains(err.Error(), "instance not authorized") {
		t.Fatalf("err = %v", err)
	}
}

func TestGetContactNamePrefersSavedName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(contactInfoResponse{Name: "Dana", ContactName: "dana-wa"})
	}))
	defer srv.Close()

	c := &Client{IDInstance: "1101", APIToken: "tok", HTTP: srv.Client(), BaseURL: srv.URL}
	name, err := c.GetContactName(context.Background(), "972501234567")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if name != "Dana" {
		t.Fatalf("name = %q", name)
	}
}
