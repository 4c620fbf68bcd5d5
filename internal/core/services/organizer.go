package services

import (
	"context"
	"log/slog"

	"webex-room-archiver/internal/domain"
)

// Organizer выполняет единственный прямой проход по потоку сообщений
// (в порядке доставки платформы, обычно от новых к старым) и попутно:
//   - раскладывает ответы по корзинам тредов (вставка в начало корзины дает
//     порядок "от старых к новым" внутри треда);
//   - разрешает личности авторов через IdentityCache;
//   - дозаполняет пустой e-mail автора из разрешенной записи справочника;
//   - разрешает метаданные каждого уникального URL вложения;
//   - регистрирует аватары для скачивания, если это запрошено.
//
// Organizer привязан к одному запуску архивирования и не потокобезопасен:
// фаза сбора строго однопоточна.
type Organizer struct {
	people      *IdentityCache
	resolver    *AttachmentResolver
	withAvatars bool
	log         *slog.Logger

	messages    []domain.Message
	threads     domain.ThreadMap
	attachments map[string]domain.Attachment
	avatars     map[string]domain.Attachment
}

// OrganizerOption — функциональная опция для настройки Organizer.
type OrganizerOption func(*Organizer)

// WithAvatarDownloads включает регистрацию аватаров авторов для скачивания.
func WithAvatarDownloads() OrganizerOption {
	return func(o *Organizer) {
		o.withAvatars = true
	}
}

// WithOrganizerLogger устанавливает логгер для органайзера.
func WithOrganizerLogger(l *slog.Logger) OrganizerOption {
	return func(o *Organizer) {
		if l != nil {
			o.log = l
		}
	}
}

// NewOrganizer создает новый экземпляр Organizer.
func NewOrganizer(people *IdentityCache, resolver *AttachmentResolver, opts ...OrganizerOption) *Organizer {
	o := &Organizer{
		people:      people,
		resolver:    resolver,
		log:         slog.Default(),
		threads:     make(domain.ThreadMap),
		attachments: make(map[string]domain.Attachment),
		avatars:     make(map[string]domain.Attachment),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handler возвращает функцию-обработчик одного сообщения для передачи в
// RoomAPI.ListMessages.
func (o *Organizer) Handler(ctx context.Context) func(domain.Message) error {
	return func(msg domain.Message) error {
		return o.handle(ctx, msg)
	}
}

func (o *Organizer) handle(ctx context.Context, msg domain.Message) error {
	identity := o.people.Resolve(ctx, msg.PersonID, msg.PersonEmail)

	// Дозаполнение неполных данных платформы: пустой e-mail автора берем из
	// записи справочника, чтобы группировка и рендеринг могли ключеваться
	// по e-mail. Сообщение обогащается до сохранения, наша копия.
	if msg.PersonEmail == "" && identity.Email != "" {
		msg.PersonEmail = identity.Email
	}

	if msg.ParentID != "" {
		o.threads.AddReply(msg.ParentID, msg)
	} else {
		o.messages = append(o.messages, msg)
	}

	for _, url := range msg.Files {
		if _, seen := o.attachments[url]; seen {
			continue
		}
		ref, err := o.resolver.Resolve(ctx, url)
		if err != nil {
			return err
		}
		o.attachments[url] = ref
	}

	if o.withAvatars {
		if avatarURL := identity.AvatarURL(); avatarURL != "" {
			if _, seen := o.avatars[avatarURL]; !seen {
				o.avatars[avatarURL] = domain.Attachment{
					Filename: AvatarFilename(msg.PersonID),
				}
			}
		}
	}

	return nil
}

// AvatarFilename возвращает локальное имя файла аватара для личности.
func AvatarFilename(personID string) string {
	return SanitizeFilename(personID) + ".jpg"
}

// Messages возвращает корневые сообщения в исходном порядке потока.
func (o *Organizer) Messages() []domain.Message {
	return o.messages
}

// Threads возвращает карту тредов.
func (o *Organizer) Threads() domain.ThreadMap {
	return o.threads
}

// Attachments возвращает карту URL → метаданные вложений.
func (o *Organizer) Attachments() map[string]domain.Attachment {
	return o.attachments
}

// Avatars возвращает карту URL аватара → запись для скачивания.
func (o *Organizer) Avatars() map[string]domain.Attachment {
	return o.avatars
}
