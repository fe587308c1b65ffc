// Package api is the REST side of the backend contract: room and history
// fetches, message mutations, translation batches, membership and search.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aurachat/aurasync/internal/domain"
)

// Client is an authenticated HTTP client for the chat backend.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Paginated mirrors the backend's page envelope.
type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// SendOptions carries the optional fields of a message send. TargetLang
// tells the backend which language to run its message analysis in;
// empty defaults to "en".
type SendOptions struct {
	Kind       string
	TargetLang string
	ReplyToID  int64
	Duration   int
	StickerID  int64
	GifURL     string
	FileName   string
	File       io.Reader
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Rooms fetches the user's room list.
func (c *Client) Rooms(ctx context.Context) ([]domain.Room, error) {
	var page Paginated[domain.Room]
	if err := c.get(ctx, "/chat/rooms/", nil, &page); err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	return page.Results, nil
}

// Messages fetches one page of a room's history. page <= 1 fetches the
// first page.
func (c *Client) Messages(ctx context.Context, roomID int64, page int) ([]domain.Message, error) {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	var out Paginated[domain.Message]
	path := fmt.Sprintf("/chat/rooms/%d/messages/", roomID)
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, fmt.Errorf("fetch messages for room %d: %w", roomID, err)
	}
	return out.Results, nil
}

// Send posts a message over REST (the path used for attachments; plain
// text normally goes over the socket).
func (c *Client) Send(ctx context.Context, roomID int64, content string, opts SendOptions) (*domain.Message, error) {
	path := fmt.Sprintf("/chat/rooms/%d/send/", roomID)

	var msg domain.Message
	if opts.File != nil {
		if err := c.postMultipart(ctx, path, content, opts, &msg); err != nil {
			return nil, fmt.Errorf("send message: %w", err)
		}
		return &msg, nil
	}

	body := map[string]interface{}{"content": content}
	if opts.Kind != "" {
		body["message_type"] = opts.Kind
	}
	if opts.ReplyToID != 0 {
		body["reply_to_id"] = opts.ReplyToID
	}
	if opts.Duration != 0 {
		body["duration"] = opts.Duration
	}
	if opts.StickerID != 0 {
		body["sticker_id"] = opts.StickerID
	}
	if opts.GifURL != "" {
		body["gif_url"] = opts.GifURL
	}
	if err := c.post(ctx, path, body, &msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// Edit rewrites a message's content.
func (c *Client) Edit(ctx context.Context, messageID int64, newContent string) error {
	body := map[string]interface{}{"message_id": messageID, "new_content": newContent}
	if err := c.post(ctx, "/chat/messages/edit/", body, nil); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

// Delete soft-deletes a message.
func (c *Client) Delete(ctx context.Context, messageID int64) error {
	body := map[string]interface{}{"message_id": messageID}
	if err := c.post(ctx, "/chat/messages/delete/", body, nil); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// Forward copies a message into another room.
func (c *Client) Forward(ctx context.Context, messageID, targetRoomID int64) (*domain.Message, error) {
	body := map[string]interface{}{"message_id": messageID, "target_room_id": targetRoomID}
	var msg domain.Message
	if err := c.post(ctx, "/chat/forward/", body, &msg); err != nil {
		return nil, fmt.Errorf("forward message %d: %w", messageID, err)
	}
	return &msg, nil
}

// TranslateBatch translates many messages at once. The response maps
// message id to translated text.
func (c *Client) TranslateBatch(ctx context.Context, messageIDs []int64, targetLang string) (map[int64]string, error) {
	body := map[string]interface{}{"message_ids": messageIDs, "target_lang": targetLang}
	raw := make(map[string]string)
	if err := c.post(ctx, "/chat/translate-batch/", body, &raw); err != nil {
		return nil, fmt.Errorf("translate batch: %w", err)
	}

	out := make(map[int64]string, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out, nil
}

// CreatePrivateRoom opens (or returns the existing) private room with a
// user.
func (c *Client) CreatePrivateRoom(ctx context.Context, userID int64) (*domain.Room, error) {
	var room domain.Room
	if err := c.post(ctx, "/chat/private/", map[string]interface{}{"user_id": userID}, &room); err != nil {
		return nil, fmt.Errorf("create private room: %w", err)
	}
	return &room, nil
}

// CreateGroupRoom creates a group with the given members.
func (c *Client) CreateGroupRoom(ctx context.Context, name string, userIDs []int64) (*domain.Room, error) {
	body := map[string]interface{}{"name": name, "user_ids": userIDs}
	var room domain.Room
	if err := c.post(ctx, "/chat/group/", body, &room); err != nil {
		return nil, fmt.Errorf("create group room: %w", err)
	}
	return &room, nil
}

// DeleteRoom removes a room (group owner only).
func (c *Client) DeleteRoom(ctx context.Context, roomID int64) error {
	path := fmt.Sprintf("/chat/rooms/%d/delete/", roomID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete room %d: %w", roomID, err)
	}
	return nil
}

// AddMember adds a user to a group room.
func (c *Client) AddMember(ctx context.Context, roomID, userID int64) error {
	path := fmt.Sprintf("/chat/rooms/%d/add-member/", roomID)
	if err := c.post(ctx, path, map[string]interface{}{"user_id": userID}, nil); err != nil {
		return fmt.Errorf("add member to room %d: %w", roomID, err)
	}
	return nil
}

// RemoveMember removes a user from a group room.
func (c *Client) RemoveMember(ctx context.Context, roomID, userID int64) error {
	path := fmt.Sprintf("/chat/rooms/%d/remove-member/", roomID)
	if err := c.post(ctx, path, map[string]interface{}{"user_id": userID}, nil); err != nil {
		return fmt.Errorf("remove member from room %d: %w", roomID, err)
	}
	return nil
}

// Search finds messages matching query across the user's rooms.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("q", query)
	var page Paginated[domain.Message]
	if err := c.get(ctx, "/chat/search/", q, &page); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return page.Results, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(data), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postMultipart(ctx context.Context, path, content string, opts SendOptions, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if content != "" {
		if err := w.WriteField("content", content); err != nil {
			return err
		}
	}
	if opts.Kind != "" {
		if err := w.WriteField("message_type", opts.Kind); err != nil {
			return err
		}
	}
	name := opts.FileName
	if name == "" {
		name = "upload"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, opts.File); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
