package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

// IdentityCache мемоизирует запросы к справочнику в рамках одного запуска
// архивирования: каждый уникальный автор разрешается не более одного раза.
// Результат любого исхода "липкий": даже временная ошибка API не ведет к
// повторному запросу (осознанный компромисс в пользу ограниченного числа
// вызовов API).
type IdentityCache struct {
	api   ports.RoomAPI
	cache map[string]domain.Identity
	mutex sync.RWMutex
	log   *slog.Logger
}

// CacheOption — функциональная опция для настройки IdentityCache.
type CacheOption func(*IdentityCache)

// WithCacheLogger устанавливает логгер для кэша.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *IdentityCache) {
		if l != nil {
			c.log = l
		}
	}
}

// NewIdentityCache создает новый экземпляр IdentityCache, привязанный к
// одному запуску архивирования.
func NewIdentityCache(api ports.RoomAPI, opts ...CacheOption) *IdentityCache {
	c := &IdentityCache{
		api:   api,
		cache: make(map[string]domain.Identity),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve возвращает Identity для ссылки на личность, запрашивая справочник
// при первом обращении. Исходы классифицируются:
//   - успех: запись кэшируется и возвращается;
//   - "не найдено": заглушка NotFound с известным из контекста e-mail, чтобы
//     отрисовать автора без повторного запроса;
//   - любая другая ошибка API: логируется и кэшируется заглушка LookupFailed
//     (отличима от NotFound для последующего аудита).
func (c *IdentityCache) Resolve(ctx context.Context, personID, knownEmail string) domain.Identity {
	c.mutex.RLock()
	cached, ok := c.cache[personID]
	c.mutex.RUnlock()
	if ok {
		return cached
	}

	identity := c.lookup(ctx, personID, knownEmail)

	c.mutex.Lock()
	c.cache[personID] = identity
	c.mutex.Unlock()
	return identity
}

func (c *IdentityCache) lookup(ctx context.Context, personID, knownEmail string) domain.Identity {
	person, err := c.api.GetPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.log.InfoContext(ctx, "Автор не найден в справочнике, подставляем заглушку",
				"person_id", personID)
			return domain.Identity{
				Kind:     domain.IdentityNotFound,
				PersonID: personID,
				Email:    knownEmail,
			}
		}

		c.log.WarnContext(ctx, "Ошибка справочника, подставляем заглушку lookup_failed",
			"person_id", personID, "error", err)
		return domain.Identity{
			Kind:     domain.IdentityLookupFailed,
			PersonID: personID,
			Email:    knownEmail,
		}
	}

	email := knownEmail
	if email == "" {
		email = person.Email()
	}
	return domain.Identity{
		Kind:     domain.IdentityResolved,
		PersonID: personID,
		Email:    email,
		Person:   &person,
	}
}

// All возвращает карту всех разрешенных за запуск личностей.
// Карта принадлежит кэшу; после завершения однопоточной фазы сбора она
// только читается.
func (c *IdentityCache) All() map[string]domain.Identity {
	return c.cache
}
