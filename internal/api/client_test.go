package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRoomsParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/rooms/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":2,"results":[{"id":1,"room_type":"group","name":"dev"},{"id":2,"room_type":"private"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	rooms, err := c.Rooms(context.Background())
	if err != nil {
		t.Fatalf("rooms failed: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "dev" {
		t.Errorf("unexpected rooms: %+v", rooms)
	}
}

func TestMessagesPageParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/rooms/5/messages/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "3" {
			t.Errorf("page = %q, want 3", got)
		}
		w.Write([]byte(`{"results":[{"id":10,"content":"hi","message_type":"text","sender":{"id":1,"username":"alice"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	msgs, err := c.Messages(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != 10 || msgs[0].Text() != "hi" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestEditPostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/messages/edit/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["message_id"].(float64) != 9 || body["new_content"] != "fixed" {
			t.Errorf("unexpected body: %v", body)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	if err := c.Edit(context.Background(), 9, "fixed"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
}

func TestTranslateBatchKeysToIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MessageIDs []int64 `json:"message_ids"`
			TargetLang string  `json:"target_lang"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.MessageIDs) != 2 || body.TargetLang != "hi" {
			t.Errorf("unexpected body: %+v", body)
		}
		w.Write([]byte(`{"1":"नमस्ते","2":"धन्यवाद"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	texts, err := c.TranslateBatch(context.Background(), []int64{1, 2}, "hi")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if texts[1] != "नमस्ते" || texts[2] != "धन्यवाद" {
		t.Errorf("unexpected texts: %v", texts)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"not a participant"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	if _, err := c.Rooms(context.Background()); err == nil {
		t.Fatal("expected error on 403")
	}
}
