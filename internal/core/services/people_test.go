package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"webex-room-archiver/internal/domain"
)

func TestIdentityCache(t *testing.T) {
	ctx := context.Background()

	t.Run("справочник вызывается не более одного раза на личность", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "p1").Return(domain.Person{
			ID:          "p1",
			DisplayName: "Anna",
			Emails:      []string{"anna@example.com"},
		}, nil).Once()

		cache := NewIdentityCache(api)
		for i := 0; i < 5; i++ {
			identity := cache.Resolve(ctx, "p1", "")
			assert.Equal(t, domain.IdentityResolved, identity.Kind)
			assert.Equal(t, "Anna", identity.DisplayName())
		}

		api.AssertExpectations(t)
		api.AssertNumberOfCalls(t, "GetPerson", 1)
	})

	t.Run("не найденный автор дает заглушку с известным e-mail", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "gone").Return(domain.Person{}, domain.ErrNotFound).Once()

		cache := NewIdentityCache(api)
		identity := cache.Resolve(ctx, "gone", "gone@example.com")

		assert.Equal(t, domain.IdentityNotFound, identity.Kind)
		assert.Equal(t, "gone@example.com", identity.Email)
		assert.Equal(t, "gone@example.com", identity.DisplayName())
	})

	t.Run("временная ошибка API дает липкую заглушку lookup_failed", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "flaky").Return(domain.Person{}, errors.New("503 from upstream")).Once()

		cache := NewIdentityCache(api)
		first := cache.Resolve(ctx, "flaky", "")
		second := cache.Resolve(ctx, "flaky", "")

		assert.Equal(t, domain.IdentityLookupFailed, first.Kind)
		assert.Equal(t, first, second)
		// Повторного запроса не было: результат любого исхода липкий
		api.AssertNumberOfCalls(t, "GetPerson", 1)
	})

	t.Run("разные личности разрешаются независимо", func(t *testing.T) {
		api := new(mockRoomAPI)
		api.On("GetPerson", ctx, "a").Return(domain.Person{ID: "a", DisplayName: "A"}, nil).Once()
		api.On("GetPerson", ctx, "b").Return(domain.Person{ID: "b", DisplayName: "B"}, nil).Once()

		cache := NewIdentityCache(api)
		assert.Equal(t, "A", cache.Resolve(ctx, "a", "").DisplayName())
		assert.Equal(t, "B", cache.Resolve(ctx, "b", "").DisplayName())
		assert.Len(t, cache.All(), 2)
	})
}
