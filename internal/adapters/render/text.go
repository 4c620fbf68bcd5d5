package render

import (
	"bytes"
	"fmt"
	texttemplate "text/template"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

const textTranscript = `{{.Title}}
Created: {{.Created}} by {{.CreatorName}}{{if .CreatorEmail}} ({{.CreatorEmail}}){{end}}
----------------------------------------
{{range .Messages}}
[{{.Timestamp}}] {{.Author}}: {{.Text}}
{{- range .Attachments}}
    attached: {{.}}
{{- end}}
{{- range .Replies}}
    [{{.Timestamp}}] {{.Author}} (reply): {{.Text}}
{{- range .Attachments}}
        attached: {{.}}
{{- end}}
{{- end}}
{{- end}}
`

var textTmpl = texttemplate.Must(texttemplate.New("transcript.txt").Parse(textTranscript))

// TextRenderer рендерит текстовую версию транскрипта.
type TextRenderer struct{}

// NewTextRenderer создает новый экземпляр TextRenderer.
func NewTextRenderer() ports.Renderer {
	return &TextRenderer{}
}

// Render возвращает текстовый транскрипт.
func (r *TextRenderer) Render(t *domain.Transcript) ([]byte, error) {
	view, err := buildView(t, false)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("не удалось отрендерить текстовый транскрипт: %w", err)
	}
	return buf.Bytes(), nil
}
