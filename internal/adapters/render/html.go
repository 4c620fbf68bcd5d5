package render

import (
	"bytes"
	"fmt"
	"html/template"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

const htmlTranscript = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="css/default.css">
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p class="room-meta">Created {{.Created}} by {{.CreatorName}}{{if .CreatorEmail}} ({{.CreatorEmail}}){{end}}</p>
</header>
<main>
{{- range .Messages}}
  <div class="message{{if .Continuation}} continuation{{end}}">
{{- if not .Continuation}}
    <div class="message-header">
{{- if .AvatarFile}}
      <img class="avatar" src="{{.AvatarFile}}" alt="">
{{- end}}
      <span class="author">{{.Author}}</span>
      <span class="timestamp">{{.Timestamp}}</span>
    </div>
{{- end}}
    <div class="message-body">{{.HTML}}</div>
{{- range .Attachments}}
    <div class="attachment"><a href="attachments/{{.}}">{{.}}</a></div>
{{- end}}
{{- if .Replies}}
    <div class="thread">
{{- range .Replies}}
      <div class="message reply">
        <div class="message-header">
          <span class="author">{{.Author}}</span>
          <span class="timestamp">{{.Timestamp}}</span>
        </div>
        <div class="message-body">{{.HTML}}</div>
{{- range .Attachments}}
        <div class="attachment"><a href="attachments/{{.}}">{{.}}</a></div>
{{- end}}
      </div>
{{- end}}
    </div>
{{- end}}
  </div>
{{- end}}
</main>
</body>
</html>
`

var htmlTmpl = template.Must(template.New("transcript.html").Parse(htmlTranscript))

// HTMLRenderer рендерит HTML-версию транскрипта: аватары, треды и компактные
// "продолжения" реплик одного автора.
type HTMLRenderer struct{}

// NewHTMLRenderer создает новый экземпляр HTMLRenderer.
func NewHTMLRenderer() ports.Renderer {
	return &HTMLRenderer{}
}

// Render возвращает HTML-транскрипт.
func (r *HTMLRenderer) Render(t *domain.Transcript) ([]byte, error) {
	view, err := buildView(t, true)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("не удалось отрендерить HTML-транскрипт: %w", err)
	}
	return buf.Bytes(), nil
}
