package ports

import (
	"context"
	"io"

	"webex-room-archiver/internal/domain"
)

// MessageFilter сужает выборку сообщений комнаты.
type MessageFilter struct {
	// MentionedOnly — запрашивать только сообщения с упоминанием вызывающего.
	// Требуется для бот-аккаунтов без расширенного доступа.
	MentionedOnly bool
}

// RoomAPI определяет интерфейс платформы обмена сообщениями:
// справочник пользователей, комнаты и постраничный список сообщений.
type RoomAPI interface {
	// GetRoom возвращает снимок комнаты или domain-ошибку "не найдено".
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	// GetPerson возвращает запись справочника по стабильной ссылке на личность.
	GetPerson(ctx context.Context, personID string) (domain.Person, error)
	// GetMe возвращает личность вызывающего (для проверки бот-аккаунта).
	GetMe(ctx context.Context) (domain.Person, error)
	// ListMessages обходит конечный одноразовый поток сообщений комнаты в
	// порядке доставки платформы и вызывает yield для каждого сообщения.
	// Ошибка yield прерывает обход и возвращается вызывающему.
	ListMessages(ctx context.Context, roomID string, filter MessageFilter, yield func(domain.Message) error) error
}

// FileHead — результат метаданных-пробы файла (без тела).
type FileHead struct {
	Status             int
	ContentDisposition string
	ContentLength      int64
	ContentType        string
}

// FileService определяет интерфейс доступа к бинарному содержимому платформы.
type FileService interface {
	// ProbeFile выполняет метаданные-пробу по URL файла. Ошибка возвращается
	// только при транспортном сбое; классификация статусов — дело вызывающего.
	ProbeFile(ctx context.Context, url string) (FileHead, error)
	// StreamFile открывает поток тела файла. Закрыть поток обязан вызывающий.
	StreamFile(ctx context.Context, url string) (io.ReadCloser, error)
}

// Renderer превращает финализированную модель запуска в байты транскрипта.
// Чистая функция: никаких побочных эффектов на диске.
type Renderer interface {
	Render(t *domain.Transcript) ([]byte, error)
}

// Staging — эфемерная папка одного запуска архивирования. Существует только
// между Setup и упаковкой либо сносом при ошибке.
type Staging interface {
	// Path возвращает абсолютный путь папки.
	Path() string
	// Mkdir создает подпапку внутри папки запуска.
	Mkdir(rel string) error
	// WriteFile записывает готовый файл по относительному пути.
	WriteFile(rel string, data []byte) error
	// Create открывает файл для потоковой записи (скачивания).
	Create(rel string) (io.WriteCloser, error)
	// CopyStaticAssets копирует статические ресурсы рендеринга (css).
	CopyStaticAssets() error
	// Compress упаковывает папку в один архивный файл выбранного формата
	// и возвращает путь к нему.
	Compress(format string) (string, error)
	// Remove полностью удаляет папку со всем содержимым.
	Remove() error
}

// ArchiveStore создает папки запусков. Одновременные запуски с одинаковым
// именем папки не поддерживаются и сериализуются вызывающим.
type ArchiveStore interface {
	// Setup создает папку запуска. При overwrite существующая папка с тем же
	// именем предварительно удаляется.
	Setup(name string, overwrite bool) (Staging, error)
}
