// Package webex реализует порты RoomAPI и FileService поверх HTTP API
// платформы обмена сообщениями.
package webex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

// pageSize — размер страницы при постраничном обходе сообщений.
const pageSize = 100

// nextLinkRegexp извлекает URL следующей страницы из заголовка Link
// (RFC 5988, rel="next").
var nextLinkRegexp = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Client — клиент HTTP API платформы. Реализует ports.RoomAPI и
// ports.FileService.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

var (
	_ ports.RoomAPI     = (*Client)(nil)
	_ ports.FileService = (*Client)(nil)
)

// NewClient создает новый экземпляр Client. Таймаут применяется к каждому
// отдельному запросу (single_request_timeout).
func NewClient(baseURL, accessToken string, singleRequestTimeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: singleRequestTimeout,
		},
	}
}

// GetRoom возвращает снимок комнаты.
func (c *Client) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	var room domain.Room
	if err := c.getJSON(ctx, c.baseURL+"/rooms/"+url.PathEscape(roomID), &room); err != nil {
		return domain.Room{}, fmt.Errorf("failed to get room %s: %w", roomID, err)
	}
	return room, nil
}

// GetPerson возвращает запись справочника о пользователе.
func (c *Client) GetPerson(ctx context.Context, personID string) (domain.Person, error) {
	var person domain.Person
	if err := c.getJSON(ctx, c.baseURL+"/people/"+url.PathEscape(personID), &person); err != nil {
		return domain.Person{}, fmt.Errorf("failed to get person %s: %w", personID, err)
	}
	return person, nil
}

// GetMe возвращает личность владельца токена.
func (c *Client) GetMe(ctx context.Context) (domain.Person, error) {
	var person domain.Person
	if err := c.getJSON(ctx, c.baseURL+"/people/me", &person); err != nil {
		return domain.Person{}, fmt.Errorf("failed to get own identity: %w", err)
	}
	return person, nil
}

// messagesPage — одна страница ответа списка сообщений.
type messagesPage struct {
	Items []domain.Message `json:"items"`
}

// ListMessages обходит постраничный список сообщений комнаты в порядке
// доставки платформы и вызывает yield для каждого сообщения. Поток конечный
// и одноразовый: пагинация идет по заголовку Link rel="next".
func (c *Client) ListMessages(ctx context.Context, roomID string, filter ports.MessageFilter, yield func(domain.Message) error) error {
	query := url.Values{}
	query.Set("roomId", roomID)
	query.Set("max", fmt.Sprintf("%d", pageSize))
	if filter.MentionedOnly {
		query.Set("mentionedPeople", "me")
	}

	pageURL := c.baseURL + "/messages?" + query.Encode()
	for pageURL != "" {
		next, err := c.listPage(ctx, pageURL, yield)
		if err != nil {
			return err
		}
		pageURL = next
	}
	return nil
}

func (c *Client) listPage(ctx context.Context, pageURL string, yield func(domain.Message) error) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("message listing returned status %d", resp.StatusCode)
	}

	var page messagesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return "", fmt.Errorf("failed to decode messages page: %w", err)
	}

	for _, msg := range page.Items {
		if err := yield(msg); err != nil {
			return "", err
		}
	}

	return parseNextLink(resp.Header.Get("Link")), nil
}

// parseNextLink возвращает URL следующей страницы из заголовка Link или
// пустую строку, если страниц больше нет.
func parseNextLink(header string) string {
	m := nextLinkRegexp.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

// ProbeFile выполняет HEAD-запрос метаданных файла с токеном вызывающего.
// Статус ответа не классифицируется: это дело AttachmentResolver.
func (c *Client) ProbeFile(ctx context.Context, fileURL string) (ports.FileHead, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fileURL, nil)
	if err != nil {
		return ports.FileHead{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.FileHead{}, fmt.Errorf("failed to probe file: %w", err)
	}
	defer resp.Body.Close()

	return ports.FileHead{
		Status:             resp.StatusCode,
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ContentLength:      resp.ContentLength,
		ContentType:        resp.Header.Get("Content-Type"),
	}, nil
}

// StreamFile открывает поток тела файла. Закрыть поток обязан вызывающий.
func (c *Client) StreamFile(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to stream file: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("file download returned status %d for %s", resp.StatusCode, fileURL)
	}

	return resp.Body, nil
}

// getJSON выполняет GET-запрос с токеном и декодирует JSON-ответ.
// 404 транслируется в domain.ErrNotFound.
func (c *Client) getJSON(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
