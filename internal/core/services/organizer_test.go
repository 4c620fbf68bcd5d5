package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

func TestOrganizer(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newOrganizer := func(api *mockRoomAPI, files *mockFileService, opts ...OrganizerOption) *Organizer {
		return NewOrganizer(NewIdentityCache(api), NewAttachmentResolver(files), opts...)
	}

	t.Run("ответы треда упорядочены от старых к новым", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{ID: "p1", DisplayName: "P"}, nil).Once()
		files := new(mockFileService)

		org := newOrganizer(api, files)
		handle := org.Handler(ctx)

		// Поток от новых к старым: M3 (ответ, новее), M2 (ответ, старше), M1 (родитель)
		m3 := domain.Message{ID: "m3", ParentID: "m1", PersonID: "p1", PersonEmail: "p@e.com", Created: base.Add(2 * time.Minute)}
		m2 := domain.Message{ID: "m2", ParentID: "m1", PersonID: "p1", PersonEmail: "p@e.com", Created: base.Add(1 * time.Minute)}
		m1 := domain.Message{ID: "m1", PersonID: "p1", PersonEmail: "p@e.com", Created: base}

		require.NoError(t, handle(m3))
		require.NoError(t, handle(m2))
		require.NoError(t, handle(m1))

		bucket := org.Threads()["m1"]
		require.Len(t, bucket, 2)
		assert.Equal(t, "m2", bucket[0].ID)
		assert.Equal(t, "m3", bucket[1].ID)

		// Родитель попадает в основной список, ответы — нет
		require.Len(t, org.Messages(), 1)
		assert.Equal(t, "m1", org.Messages()[0].ID)
	})

	t.Run("пустой e-mail автора дозаполняется из справочника", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{
			ID: "p1", DisplayName: "Anna", Emails: []string{"anna@example.com"},
		}, nil).Once()
		files := new(mockFileService)

		org := newOrganizer(api, files)
		handle := org.Handler(ctx)

		require.NoError(t, handle(domain.Message{ID: "m1", PersonID: "p1", Created: base}))

		assert.Equal(t, "anna@example.com", org.Messages()[0].PersonEmail)
	})

	t.Run("метаданные вложения запрашиваются ровно один раз на URL", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{ID: "p1"}, nil).Once()
		files := new(mockFileService)
		files.On("ProbeFile", ctx, "https://files/doc").Return(ports.FileHead{
			Status:             200,
			ContentDisposition: `attachment; filename="doc.pdf"`,
		}, nil).Once()

		org := newOrganizer(api, files)
		handle := org.Handler(ctx)

		// Три сообщения ссылаются на один и тот же URL
		for i, id := range []string{"m1", "m2", "m3"} {
			msg := domain.Message{
				ID: id, PersonID: "p1", PersonEmail: "p@e.com",
				Created: base.Add(time.Duration(i) * time.Minute),
				Files:   []string{"https://files/doc"},
			}
			require.NoError(t, handle(msg))
		}

		files.AssertNumberOfCalls(t, "ProbeFile", 1)
		require.Contains(t, org.Attachments(), "https://files/doc")
		assert.Equal(t, "doc.pdf", org.Attachments()["https://files/doc"].Filename)
	})

	t.Run("ошибка контракта пробы прерывает проход", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{ID: "p1"}, nil).Once()
		files := new(mockFileService)
		files.On("ProbeFile", ctx, "https://files/bad").Return(ports.FileHead{
			Status: 200, ContentDisposition: "attachment",
		}, nil).Once()

		org := newOrganizer(api, files)
		handle := org.Handler(ctx)

		err := handle(domain.Message{
			ID: "m1", PersonID: "p1", PersonEmail: "p@e.com", Created: base,
			Files: []string{"https://files/bad"},
		})
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("аватар регистрируется один раз на автора", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{
			ID: "p1", DisplayName: "Anna", AvatarURL: "https://avatars/p1",
		}, nil).Once()
		files := new(mockFileService)

		org := newOrganizer(api, files, WithAvatarDownloads())
		handle := org.Handler(ctx)

		for i, id := range []string{"m1", "m2"} {
			require.NoError(t, handle(domain.Message{
				ID: id, PersonID: "p1", PersonEmail: "p@e.com",
				Created: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		require.Len(t, org.Avatars(), 1)
		ref := org.Avatars()["https://avatars/p1"]
		assert.Equal(t, AvatarFilename("p1"), ref.Filename)
		assert.False(t, ref.Deleted)
	})

	t.Run("без запроса аватаров карта остается пустой", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{
			ID: "p1", AvatarURL: "https://avatars/p1",
		}, nil).Once()
		files := new(mockFileService)

		org := newOrganizer(api, files)
		require.NoError(t, org.Handler(ctx)(domain.Message{ID: "m1", PersonID: "p1", PersonEmail: "p@e.com", Created: base}))

		assert.Empty(t, org.Avatars())
	})
}
