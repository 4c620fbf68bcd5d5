package domain

import "time"

// Room представляет снимок комнаты (пространства), которую мы архивируем.
// Снимок неизменяем и запрашивается один раз за запуск.
type Room struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	CreatorID string    `json:"creatorId"`
	Created   time.Time `json:"created"`
}

// Message представляет одно сообщение комнаты.
// Поток сообщений приходит в порядке доставки платформы (обычно от новых к старым).
type Message struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	ParentID    string    `json:"parentId,omitempty"`
	PersonID    string    `json:"personId"`
	PersonEmail string    `json:"personEmail"`
	Text        string    `json:"text"`
	Markdown    string    `json:"markdown,omitempty"`
	Created     time.Time `json:"created"`
	Files       []string  `json:"files,omitempty"`
}

// Person представляет запись справочника о пользователе.
type Person struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Emails      []string  `json:"emails"`
	AvatarURL   string    `json:"avatar,omitempty"`
	Type        string    `json:"type,omitempty"` // "person" или "bot"
	Created     time.Time `json:"created"`
}

// IsBot сообщает, является ли запись бот-аккаунтом.
func (p *Person) IsBot() bool {
	return p.Type == "bot"
}

// Email возвращает основной e-mail пользователя или пустую строку.
func (p *Person) Email() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0]
}

// IdentityKind — тег варианта Identity.
type IdentityKind string

const (
	// IdentityResolved — запись справочника успешно получена.
	IdentityResolved IdentityKind = "resolved"
	// IdentityNotFound — пользователь удален или недоступен; архивирование продолжается.
	IdentityNotFound IdentityKind = "not_found"
	// IdentityLookupFailed — временная ошибка API; результат "липкий" на время запуска.
	IdentityLookupFailed IdentityKind = "lookup_failed"
)

// Identity — результат разрешения автора: запись справочника либо одна из
// сигнальных заглушек. Теговый вариант вместо nil, чтобы рендереры могли
// исчерпывающе ветвиться.
type Identity struct {
	Kind     IdentityKind
	PersonID string
	// Email известен из контекста сообщения и сохраняется даже для заглушек,
	// чтобы отрисовать "Person Not Found" без повторного запроса.
	Email  string
	Person *Person // заполнен только при Kind == IdentityResolved
}

// DisplayName возвращает отображаемое имя для любого варианта Identity.
func (id Identity) DisplayName() string {
	switch id.Kind {
	case IdentityResolved:
		return id.Person.DisplayName
	case IdentityNotFound:
		if id.Email != "" {
			return id.Email
		}
		return "Person Not Found"
	default:
		if id.Email != "" {
			return id.Email
		}
		return "Person Lookup Failed"
	}
}

// AvatarURL возвращает ссылку на аватар, если она известна.
func (id Identity) AvatarURL() string {
	if id.Kind == IdentityResolved && id.Person != nil {
		return id.Person.AvatarURL
	}
	return ""
}

// Attachment описывает метаданные файла, на который ссылается сообщение.
// Заполняется не более одного раза на уникальный URL.
type Attachment struct {
	ContentDisposition string
	ContentLength      int64
	ContentType        string
	// Filename — санитизированное имя, безопасное для файловой системы.
	Filename string
	// Deleted — файл удален на стороне платформы; скачивание пропускается.
	Deleted bool
}

// ThreadMap отображает ID родительского сообщения на упорядоченный список
// ответов этого треда (от старых к новым).
type ThreadMap map[string][]Message

// AddReply вставляет ответ в начало корзины треда. Поскольку исходный поток
// идет от новых к старым, повторная вставка в начало дает порядок
// "от старых к новым" внутри корзины.
func (tm ThreadMap) AddReply(parentID string, msg Message) {
	tm[parentID] = append([]Message{msg}, tm[parentID]...)
}

// Transcript — финализированная модель одного запуска архивирования,
// передаваемая рендерерам.
type Transcript struct {
	Room    Room
	Creator Identity
	// Messages — корневые сообщения в порядке отображения.
	Messages []Message
	Threads  ThreadMap
	// Attachments — карта URL → метаданные файла.
	Attachments map[string]Attachment
	// People — карта personID → Identity.
	People map[string]Identity
	// Continuations — позиции Messages, помеченные как продолжение
	// предыдущей реплики того же автора.
	Continuations map[int]bool
	// TimestampFormat — формат времени (time.Layout) для рендеринга.
	TimestampFormat string
}

// IsContinuation сообщает, помечена ли позиция как продолжение.
func (t *Transcript) IsContinuation(i int) bool {
	return t.Continuations[i]
}
