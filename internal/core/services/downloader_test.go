package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webex-room-archiver/internal/domain"
)

func body(content string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(content))
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()

	t.Run("удаленные записи пропускаются", func(t *testing.T) {
		files := new(mockFileService)
		files.On("StreamFile", ctx, "https://files/live").Return(body("data"), nil).Once()

		staging := newMemStaging()
		downloader := NewDownloader(files, WithWorkers(4))

		refs := map[string]domain.Attachment{
			"https://files/live":    {Filename: "live.txt"},
			"https://files/deleted": {Deleted: true},
			"https://files/unknown": {Deleted: true, Filename: "UNKNOWN"},
		}

		require.NoError(t, downloader.DownloadAll(ctx, staging, "attachments", refs))

		// Ровно одна попытка скачивания
		files.AssertNumberOfCalls(t, "StreamFile", 1)
		assert.Equal(t, 1, staging.fileCount())
	})

	t.Run("пустая карта не запускает пул", func(t *testing.T) {
		files := new(mockFileService)
		staging := newMemStaging()
		downloader := NewDownloader(files)

		require.NoError(t, downloader.DownloadAll(ctx, staging, "avatars", nil))
		files.AssertNotCalled(t, "StreamFile")
	})

	t.Run("содержимое записывается под санитизированным именем в подпапку", func(t *testing.T) {
		files := new(mockFileService)
		files.On("StreamFile", ctx, "https://files/a").Return(body("hello"), nil).Once()

		staging := newMemStaging()
		downloader := NewDownloader(files, WithWorkers(1))

		refs := map[string]domain.Attachment{
			"https://files/a": {Filename: "a.txt"},
		}
		require.NoError(t, downloader.DownloadAll(ctx, staging, "attachments", refs))

		buf, ok := staging.files["attachments/a.txt"]
		require.True(t, ok)
		assert.Equal(t, "hello", buf.String())
	})

	t.Run("сбой одной загрузки не прерывает остальные, но возвращается", func(t *testing.T) {
		files := new(mockFileService)
		files.On("StreamFile", ctx, "https://files/ok1").Return(body("1"), nil).Once()
		files.On("StreamFile", ctx, "https://files/ok2").Return(body("2"), nil).Once()
		files.On("StreamFile", ctx, "https://files/bad").Return(nil, errors.New("connection reset")).Once()

		staging := newMemStaging()
		downloader := NewDownloader(files, WithWorkers(2))

		refs := map[string]domain.Attachment{
			"https://files/ok1": {Filename: "ok1.txt"},
			"https://files/ok2": {Filename: "ok2.txt"},
			"https://files/bad": {Filename: "bad.txt"},
		}

		err := downloader.DownloadAll(ctx, staging, "attachments", refs)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		// Все задачи пула получили терминальный статус до возврата ошибки
		files.AssertNumberOfCalls(t, "StreamFile", 3)
		// Частично успешные загрузки остаются: снос папки — дело оркестратора
		assert.Equal(t, 2, staging.fileCount())
	})

	t.Run("несколько сбоев агрегируются в одну ошибку", func(t *testing.T) {
		files := new(mockFileService)
		files.On("StreamFile", ctx, "https://files/b1").Return(nil, errors.New("err-one")).Once()
		files.On("StreamFile", ctx, "https://files/b2").Return(nil, errors.New("err-two")).Once()

		staging := newMemStaging()
		downloader := NewDownloader(files, WithWorkers(2))

		refs := map[string]domain.Attachment{
			"https://files/b1": {Filename: "b1.txt"},
			"https://files/b2": {Filename: "b2.txt"},
		}

		err := downloader.DownloadAll(ctx, staging, "attachments", refs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "err-one")
		assert.Contains(t, err.Error(), "err-two")
	})
}
