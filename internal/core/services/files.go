package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

// ErrMalformedResponse - ошибка нарушения контракта платформы: успешный ответ
// пробы метаданных не содержит разбираемого имени файла. Не ретраится.
var ErrMalformedResponse = errors.New("malformed file metadata response")

// filenameRegexp извлекает имя файла из заголовка Content-Disposition.
var filenameRegexp = regexp.MustCompile(`(?i)filename="(.+?)"`)

// whitespaceRegexp и unsafeRegexp используются при санитизации имен файлов.
var (
	whitespaceRegexp = regexp.MustCompile(`\s+`)
	unsafeRegexp     = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// SanitizeFilename приводит имя файла к виду, безопасному для файловой
// системы: пробельные последовательности схлопываются в подчеркивание,
// остальные небезопасные символы удаляются.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = whitespaceRegexp.ReplaceAllString(name, "_")
	return unsafeRegexp.ReplaceAllString(name, "")
}

// AttachmentResolver определяет метаданные файла по ссылке из сообщения,
// не скачивая его содержимое.
type AttachmentResolver struct {
	files ports.FileService
	log   *slog.Logger
}

// ResolverOption — функциональная опция для настройки AttachmentResolver.
type ResolverOption func(*AttachmentResolver)

// WithResolverLogger устанавливает логгер для резолвера.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *AttachmentResolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewAttachmentResolver создает новый экземпляр AttachmentResolver.
func NewAttachmentResolver(files ports.FileService, opts ...ResolverOption) *AttachmentResolver {
	r := &AttachmentResolver{
		files: files,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve выполняет метаданные-пробу по URL и классифицирует результат:
//   - 404: файл удален на стороне платформы; валидное терминальное состояние,
//     не ошибка;
//   - успех без имени файла в Content-Disposition: ErrMalformedResponse;
//   - любой другой неуспешный статус: деградация в "удален" с именем UNKNOWN,
//     чтобы одна битая ссылка не валила весь архив;
//   - успех: заполненная запись с санитизированным именем.
func (r *AttachmentResolver) Resolve(ctx context.Context, url string) (domain.Attachment, error) {
	head, err := r.files.ProbeFile(ctx, url)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("не удалось выполнить пробу метаданных файла %s: %w", url, err)
	}

	if head.Status == http.StatusNotFound {
		r.log.DebugContext(ctx, "Файл удален на стороне платформы", "url", url)
		return domain.Attachment{Deleted: true}, nil
	}

	if head.Status < 200 || head.Status > 299 {
		r.log.WarnContext(ctx, "Проба метаданных вернула неуспешный статус, продолжаем без файла",
			"url", url, "status", head.Status)
		return domain.Attachment{Deleted: true, Filename: "UNKNOWN"}, nil
	}

	m := filenameRegexp.FindStringSubmatch(head.ContentDisposition)
	if m == nil {
		return domain.Attachment{}, fmt.Errorf("%w: no filename in %q for url %s",
			ErrMalformedResponse, head.ContentDisposition, url)
	}

	return domain.Attachment{
		ContentDisposition: head.ContentDisposition,
		ContentLength:      head.ContentLength,
		ContentType:        head.ContentType,
		Filename:           SanitizeFilename(m[1]),
	}, nil
}
