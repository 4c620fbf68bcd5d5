package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerson(t *testing.T) {
	t.Run("IsBot различает бот-аккаунты", func(t *testing.T) {
		bot := Person{Type: "bot"}
		human := Person{Type: "person"}
		unknown := Person{}

		assert.True(t, bot.IsBot())
		assert.False(t, human.IsBot())
		assert.False(t, unknown.IsBot())
	})

	t.Run("Email возвращает первый адрес или пустую строку", func(t *testing.T) {
		assert.Equal(t, "a@example.com", (&Person{Emails: []string{"a@example.com", "b@example.com"}}).Email())
		assert.Empty(t, (&Person{}).Email())
	})
}

func TestIdentityDisplayName(t *testing.T) {
	t.Run("разрешенная личность использует имя из справочника", func(t *testing.T) {
		identity := Identity{
			Kind:   IdentityResolved,
			Person: &Person{DisplayName: "Alice"},
		}
		assert.Equal(t, "Alice", identity.DisplayName())
	})

	t.Run("ненайденная личность откатывается на e-mail", func(t *testing.T) {
		identity := Identity{Kind: IdentityNotFound, Email: "ghost@example.com"}
		assert.Equal(t, "ghost@example.com", identity.DisplayName())
	})

	t.Run("ненайденная личность без e-mail получает плейсхолдер", func(t *testing.T) {
		identity := Identity{Kind: IdentityNotFound}
		assert.Equal(t, "Person Not Found", identity.DisplayName())
	})

	t.Run("сбой справочника отличим от ненайденной личности", func(t *testing.T) {
		identity := Identity{Kind: IdentityLookupFailed}
		assert.Equal(t, "Person Lookup Failed", identity.DisplayName())
	})
}

func TestIdentityAvatarURL(t *testing.T) {
	resolved := Identity{Kind: IdentityResolved, Person: &Person{AvatarURL: "https://avatars/a"}}
	assert.Equal(t, "https://avatars/a", resolved.AvatarURL())

	assert.Empty(t, Identity{Kind: IdentityNotFound}.AvatarURL())
	assert.Empty(t, Identity{Kind: IdentityResolved}.AvatarURL())
}

func TestThreadMapAddReply(t *testing.T) {
	// Поток идет от новых к старым: вставка в начало восстанавливает
	// хронологию внутри корзины треда
	tm := ThreadMap{}
	tm.AddReply("root", Message{ID: "r3"})
	tm.AddReply("root", Message{ID: "r2"})
	tm.AddReply("root", Message{ID: "r1"})
	tm.AddReply("other", Message{ID: "x1"})

	ids := make([]string, 0, len(tm["root"]))
	for _, msg := range tm["root"] {
		ids = append(ids, msg.ID)
	}
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids)
	assert.Len(t, tm["other"], 1)
}

func TestTranscriptIsContinuation(t *testing.T) {
	transcript := Transcript{Continuations: map[int]bool{1: true}}

	assert.False(t, transcript.IsContinuation(0))
	assert.True(t, transcript.IsContinuation(1))
	assert.False(t, transcript.IsContinuation(99))

	var empty Transcript
	assert.False(t, empty.IsContinuation(0))
}
