// Package archiver содержит оркестратор одного запуска архивирования
// комнаты: сбор → организация → упорядочивание → рендеринг → скачивание →
// упаковка, со сносом папки запуска при любой ошибке.
package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"webex-room-archiver/internal/core/services"
	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/pkg/config"
	"webex-room-archiver/internal/ports"
)

// Формат метки времени в имени папки запуска (UTC).
const folderTimestampLayout = "20060102T150405Z"

// Имена артефактов внутри папки запуска.
const (
	attachmentsDir   = "attachments"
	avatarsDir       = "avatars"
	spaceDetailsFile = "space_details.json"
)

// Result — результат успешного запуска архивирования.
type Result struct {
	// FolderPath — путь к несжатой папке; пуст, если папка удалена после
	// упаковки.
	FolderPath string
	// ArchivePath — путь к упакованному архиву; пуст, если упаковка не
	// запрашивалась.
	ArchivePath string
}

// Archiver — оркестратор архивирования комнат. Безопасен для
// последовательных запусков; все состояние запуска локально для ArchiveRoom.
type Archiver struct {
	api       ports.RoomAPI
	files     ports.FileService
	store     ports.ArchiveStore
	renderers map[string]ports.Renderer
	log       *slog.Logger
	now       func() time.Time
}

// Option — функциональная опция для настройки Archiver.
type Option func(*Archiver)

// WithLogger устанавливает логгер для оркестратора.
func WithLogger(l *slog.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock подменяет источник времени (для тестов детерминированных имен
// папок).
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// New создает новый экземпляр Archiver. Карта renderers отображает
// расширение файла транскрипта ("txt", "html", "json") на рендерер.
func New(api ports.RoomAPI, files ports.FileService, store ports.ArchiveStore, renderers map[string]ports.Renderer, opts ...Option) *Archiver {
	a := &Archiver{
		api:       api,
		files:     files,
		store:     store,
		renderers: renderers,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ArchiveRoom архивирует комнату в самодостаточную локальную папку и,
// опционально, в один упакованный архив. При любой ошибке от сбора до
// скачивания папка запуска удаляется целиком: частичный архив не остается
// на диске.
func (a *Archiver) ArchiveRoom(ctx context.Context, roomID string, opts config.Archive) (*Result, error) {
	// Ошибка конфигурации выявляется до любого I/O.
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	a.log.InfoContext(ctx, "Запуск архивирования комнаты", "room_id", roomID)

	room, err := a.api.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить комнату %s: %w", roomID, err)
	}

	people := services.NewIdentityCache(a.api, services.WithCacheLogger(a.log))
	// Сбой запроса создателя деградирует в заглушку, а не прерывает запуск.
	creator := people.Resolve(ctx, room.CreatorID, "")

	filter, err := a.messageFilter(ctx, opts)
	if err != nil {
		return nil, err
	}

	resolver := services.NewAttachmentResolver(a.files, services.WithResolverLogger(a.log))
	orgOpts := []services.OrganizerOption{services.WithOrganizerLogger(a.log)}
	if opts.DownloadAvatars {
		orgOpts = append(orgOpts, services.WithAvatarDownloads())
	}
	organizer := services.NewOrganizer(people, resolver, orgOpts...)

	if err := a.api.ListMessages(ctx, roomID, filter, organizer.Handler(ctx)); err != nil {
		return nil, fmt.Errorf("не удалось собрать сообщения комнаты %s: %w", roomID, err)
	}

	messages := organizer.Messages()
	if opts.ReverseOrder {
		messages = services.ReverseMessages(messages)
	}
	// Пометка продолжений всегда идет после разворота: по финальному
	// отображаемому порядку.
	marks := services.MarkContinuations(messages)

	transcript := &domain.Transcript{
		Room:            room,
		Creator:         creator,
		Messages:        messages,
		Threads:         organizer.Threads(),
		Attachments:     organizer.Attachments(),
		People:          people.All(),
		Continuations:   marks,
		TimestampFormat: opts.TimestampFormat,
	}

	name := folderName(room.Title, a.now().UTC())
	staging, err := a.store.Setup(name, opts.OverwriteFolder)
	if err != nil {
		return nil, fmt.Errorf("не удалось подготовить папку запуска: %w", err)
	}

	if err := a.produce(ctx, staging, transcript, organizer, opts, name); err != nil {
		a.tearDown(ctx, staging)
		return nil, err
	}

	result := &Result{FolderPath: staging.Path()}

	if opts.CompressFolder {
		archivePath, err := staging.Compress(opts.FileFormat)
		if err != nil {
			a.tearDown(ctx, staging)
			return nil, fmt.Errorf("не удалось упаковать папку запуска: %w", err)
		}
		result.ArchivePath = archivePath

		if opts.DeleteFolder {
			if err := staging.Remove(); err != nil {
				return nil, err
			}
			result.FolderPath = ""
		}
	}

	a.log.InfoContext(ctx, "Архивирование комнаты завершено",
		"room_id", roomID, "folder", result.FolderPath, "archive", result.ArchivePath)
	return result, nil
}

// messageFilter определяет, нужно ли сужать выборку до упоминаний: бот без
// расширенного доступа видит только сообщения с упоминанием себя.
func (a *Archiver) messageFilter(ctx context.Context, opts config.Archive) (ports.MessageFilter, error) {
	if opts.SpecialToken {
		return ports.MessageFilter{}, nil
	}

	me, err := a.api.GetMe(ctx)
	if err != nil {
		// Неудачная проверка собственной личности не фатальна: листинг
		// либо сработает, либо вернет свою ошибку.
		a.log.WarnContext(ctx, "Не удалось проверить собственную личность, выборка не сужается", "error", err)
		return ports.MessageFilter{}, nil
	}

	if me.IsBot() {
		a.log.InfoContext(ctx, "Токен принадлежит боту, выборка сужена до упоминаний")
		return ports.MessageFilter{MentionedOnly: true}, nil
	}
	return ports.MessageFilter{}, nil
}

// produce наполняет папку запуска: подпапки, статические ресурсы,
// транскрипты, снимок комнаты и скачанные файлы.
func (a *Archiver) produce(ctx context.Context, staging ports.Staging, transcript *domain.Transcript, organizer *services.Organizer, opts config.Archive, name string) error {
	if opts.DownloadAttachments {
		if err := staging.Mkdir(attachmentsDir); err != nil {
			return err
		}
	}
	if opts.DownloadAvatars {
		if err := staging.Mkdir(avatarsDir); err != nil {
			return err
		}
	}
	if opts.HTMLFormat {
		if err := staging.CopyStaticAssets(); err != nil {
			return err
		}
	}

	for _, format := range []struct {
		enabled bool
		ext     string
	}{
		{opts.TextFormat, "txt"},
		{opts.HTMLFormat, "html"},
		{opts.JSONFormat, "json"},
	} {
		if !format.enabled {
			continue
		}
		renderer, ok := a.renderers[format.ext]
		if !ok {
			return fmt.Errorf("рендерер формата %q не сконфигурирован", format.ext)
		}
		data, err := renderer.Render(transcript)
		if err != nil {
			return err
		}
		if err := staging.WriteFile(name+"."+format.ext, data); err != nil {
			return err
		}
	}

	if err := a.writeSpaceDetails(staging, transcript); err != nil {
		return err
	}

	downloader := services.NewDownloader(a.files,
		services.WithWorkers(opts.DownloadWorkers),
		services.WithDownloadLogger(a.log),
	)
	if opts.DownloadAttachments {
		if err := downloader.DownloadAll(ctx, staging, attachmentsDir, organizer.Attachments()); err != nil {
			return err
		}
	}
	if opts.DownloadAvatars {
		if err := downloader.DownloadAll(ctx, staging, avatarsDir, organizer.Avatars()); err != nil {
			return err
		}
	}

	return nil
}

// writeSpaceDetails записывает снимок комнаты и ее создателя рядом с
// транскриптами.
func (a *Archiver) writeSpaceDetails(staging ports.Staging, transcript *domain.Transcript) error {
	details := struct {
		Room    domain.Room `json:"room"`
		Creator struct {
			Kind        domain.IdentityKind `json:"kind"`
			PersonID    string              `json:"personId"`
			DisplayName string              `json:"displayName"`
			Email       string              `json:"email,omitempty"`
		} `json:"creator"`
	}{Room: transcript.Room}
	details.Creator.Kind = transcript.Creator.Kind
	details.Creator.PersonID = transcript.Creator.PersonID
	details.Creator.DisplayName = transcript.Creator.DisplayName()
	details.Creator.Email = transcript.Creator.Email

	data, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return fmt.Errorf("не удалось сериализовать снимок комнаты: %w", err)
	}
	return staging.WriteFile(spaceDetailsFile, data)
}

// tearDown сносит папку запуска после ошибки. Ошибка сноса логируется, но
// не затеняет исходную.
func (a *Archiver) tearDown(ctx context.Context, staging ports.Staging) {
	if err := staging.Remove(); err != nil {
		a.log.ErrorContext(ctx, "Не удалось снести папку запуска после ошибки",
			"path", staging.Path(), "error", err)
	}
}

// folderName строит имя папки запуска: санитизированный заголовок комнаты
// плюс метка времени UTC.
func folderName(title string, now time.Time) string {
	sanitized := services.SanitizeFilename(title)
	if sanitized == "" {
		sanitized = "room"
	}
	return sanitized + "_" + now.Format(folderTimestampLayout)
}
