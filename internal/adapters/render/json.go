package render

import (
	"encoding/json"
	"fmt"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

// JSONRenderer рендерит структурированную JSON-версию транскрипта.
type JSONRenderer struct{}

// NewJSONRenderer создает новый экземпляр JSONRenderer.
func NewJSONRenderer() ports.Renderer {
	return &JSONRenderer{}
}

// Render возвращает JSON-транскрипт с отступами.
func (r *JSONRenderer) Render(t *domain.Transcript) ([]byte, error) {
	view, err := buildView(t, false)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать JSON-транскрипт: %w", err)
	}
	return data, nil
}
