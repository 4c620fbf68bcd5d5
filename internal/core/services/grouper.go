package services

import (
	"time"

	"webex-room-archiver/internal/domain"
)

// continuationWindow — максимальный промежуток между двумя сообщениями
// одного автора, при котором второе считается продолжением реплики.
const continuationWindow = 60 * time.Second

// ReverseMessages возвращает новый срез с сообщениями в обратном порядке
// (для отображения "новые снизу").
func ReverseMessages(messages []domain.Message) []domain.Message {
	reversed := make([]domain.Message, len(messages))
	for i, msg := range messages {
		reversed[len(messages)-1-i] = msg
	}
	return reversed
}

// MarkContinuations помечает позиции сообщений, являющихся продолжением
// реплики того же автора: тот же e-mail автора и промежуток менее 60 секунд
// с предыдущим отображаемым сообщением. Это чисто визуальная подсказка для
// компактного рендеринга, никакой семантики тредов она не несет.
//
// Вызывается над ФИНАЛЬНЫМ отображаемым порядком: при развороте
// последовательности сначала разворот, потом пометка.
func MarkContinuations(messages []domain.Message) map[int]bool {
	marks := make(map[int]bool)
	for i := 1; i < len(messages); i++ {
		prev := messages[i-1]
		cur := messages[i]

		if cur.PersonEmail == "" || cur.PersonEmail != prev.PersonEmail {
			continue
		}

		delta := cur.Created.Sub(prev.Created)
		if delta < 0 {
			delta = -delta
		}
		if delta < continuationWindow {
			marks[i] = true
		}
	}
	return marks
}
