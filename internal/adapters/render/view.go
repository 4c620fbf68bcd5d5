// Package render превращает финализированную модель запуска в байты
// транскрипта: текст, HTML и структурированный JSON.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"webex-room-archiver/internal/core/services"
	"webex-room-archiver/internal/domain"
)

// markdown — общий конвертер разметки сообщений для HTML-рендеринга.
// Конфигурация неизменна, goldmark.Markdown безопасен для повторного
// использования.
var markdown = goldmark.New()

// messageView — подготовленное к рендерингу представление одного сообщения.
type messageView struct {
	ID           string        `json:"id"`
	Author       string        `json:"author"`
	Email        string        `json:"email,omitempty"`
	Timestamp    string        `json:"timestamp"`
	Text         string        `json:"text"`
	HTML         template.HTML `json:"-"`
	AvatarFile   string        `json:"avatarFile,omitempty"`
	Continuation bool          `json:"continuation,omitempty"`
	Attachments  []string      `json:"attachments,omitempty"`
	Replies      []messageView `json:"replies,omitempty"`
}

// transcriptView — подготовленное к рендерингу представление всего запуска.
type transcriptView struct {
	Title        string        `json:"title"`
	RoomType     string        `json:"type"`
	Created      string        `json:"created"`
	CreatorName  string        `json:"creatorName"`
	CreatorEmail string        `json:"creatorEmail,omitempty"`
	Messages     []messageView `json:"messages"`
}

// buildView подготавливает модель к рендерингу: подставляет отображаемые
// имена авторов, форматирует время, раскрывает треды и имена вложений.
// withHTML дополнительно конвертирует разметку сообщений в HTML.
func buildView(t *domain.Transcript, withHTML bool) (transcriptView, error) {
	view := transcriptView{
		Title:        t.Room.Title,
		RoomType:     t.Room.Type,
		Created:      t.Room.Created.Format(t.TimestampFormat),
		CreatorName:  t.Creator.DisplayName(),
		CreatorEmail: t.Creator.Email,
	}

	for i, msg := range t.Messages {
		mv, err := buildMessageView(t, msg, withHTML)
		if err != nil {
			return transcriptView{}, err
		}
		mv.Continuation = t.IsContinuation(i)

		for _, reply := range t.Threads[msg.ID] {
			rv, err := buildMessageView(t, reply, withHTML)
			if err != nil {
				return transcriptView{}, err
			}
			mv.Replies = append(mv.Replies, rv)
		}

		view.Messages = append(view.Messages, mv)
	}

	return view, nil
}

func buildMessageView(t *domain.Transcript, msg domain.Message, withHTML bool) (messageView, error) {
	identity := t.People[msg.PersonID]

	mv := messageView{
		ID:        msg.ID,
		Author:    identity.DisplayName(),
		Email:     msg.PersonEmail,
		Timestamp: msg.Created.Format(t.TimestampFormat),
		Text:      msg.Text,
	}

	if identity.AvatarURL() != "" {
		mv.AvatarFile = "avatars/" + services.AvatarFilename(msg.PersonID)
	}

	for _, url := range msg.Files {
		ref, ok := t.Attachments[url]
		if !ok {
			continue
		}
		name := ref.Filename
		if ref.Deleted && name == "" {
			name = "(file deleted)"
		}
		mv.Attachments = append(mv.Attachments, name)
	}

	if withHTML {
		source := msg.Markdown
		if source == "" {
			source = msg.Text
		}
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(source), &buf); err != nil {
			return messageView{}, fmt.Errorf("не удалось преобразовать разметку сообщения %s: %w", msg.ID, err)
		}
		mv.HTML = template.HTML(buf.String())
	}

	return mv, nil
}
