package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

// DefaultDownloadWorkers — ширина пула скачивания по умолчанию.
const DefaultDownloadWorkers = 15

// Downloader скачивает бинарное содержимое (вложения, аватары) в папку
// запуска через ограниченный пул воркеров. Отдельные сбои не прерывают
// остальные скачивания: все ошибки собираются и возвращаются одной после
// завершения пула.
type Downloader struct {
	files   ports.FileService
	workers int
	log     *slog.Logger
}

// DownloadOption — функциональная опция для настройки Downloader.
type DownloadOption func(*Downloader)

// WithWorkers устанавливает количество одновременных воркеров скачивания.
func WithWorkers(n int) DownloadOption {
	return func(d *Downloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithDownloadLogger устанавливает логгер для загрузчика.
func WithDownloadLogger(l *slog.Logger) DownloadOption {
	return func(d *Downloader) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDownloader создает новый экземпляр Downloader.
func NewDownloader(files ports.FileService, opts ...DownloadOption) *Downloader {
	d := &Downloader{
		files:   files,
		workers: DefaultDownloadWorkers,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// downloadTask — единица работы пула: один URL и его локальное имя файла.
type downloadTask struct {
	url      string
	filename string
}

// DownloadAll скачивает все записи карты в подпапку subdir папки запуска.
// Записи с флагом Deleted пропускаются. Частично успешные скачивания
// остаются на диске; решение о сносе папки принимает вызывающий.
func (d *Downloader) DownloadAll(ctx context.Context, staging ports.Staging, subdir string, refs map[string]domain.Attachment) error {
	var pending []downloadTask
	for url, ref := range refs {
		if ref.Deleted || ref.Filename == "" {
			continue
		}
		pending = append(pending, downloadTask{url: url, filename: ref.Filename})
	}

	if len(pending) == 0 {
		return nil
	}

	workers := d.workers
	if workers > len(pending) {
		workers = len(pending)
	}

	d.log.InfoContext(ctx, "Запуск пула скачивания",
		"category", subdir, "count", len(pending), "workers", workers)

	tasks := make(chan downloadTask, len(pending))
	results := make(chan error, len(pending))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go d.worker(ctx, &wg, staging, subdir, tasks, results)
	}

	for _, task := range pending {
		tasks <- task
	}
	close(tasks)

	// Каждая задача получает ровно один результат; дожидаемся всех, прежде
	// чем вернуть агрегированную ошибку.
	var downloadErrors []error
	for i := 0; i < len(pending); i++ {
		if err := <-results; err != nil {
			downloadErrors = append(downloadErrors, err)
		}
	}

	wg.Wait()
	close(results)

	if len(downloadErrors) > 0 {
		return fmt.Errorf("скачивание в %s завершилось с ошибками: %w", subdir, errors.Join(downloadErrors...))
	}

	d.log.InfoContext(ctx, "Пул скачивания завершен успешно", "category", subdir, "count", len(pending))
	return nil
}

func (d *Downloader) worker(ctx context.Context, wg *sync.WaitGroup, staging ports.Staging, subdir string, tasks <-chan downloadTask, results chan<- error) {
	defer wg.Done()
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- fmt.Errorf("скачивание %s отменено: %w", task.url, err)
			continue
		}
		results <- d.downloadOne(ctx, staging, subdir, task)
	}
}

func (d *Downloader) downloadOne(ctx context.Context, staging ports.Staging, subdir string, task downloadTask) error {
	body, err := d.files.StreamFile(ctx, task.url)
	if err != nil {
		return fmt.Errorf("не удалось открыть поток %s: %w", task.url, err)
	}
	defer body.Close()

	dst, err := staging.Create(path.Join(subdir, task.filename))
	if err != nil {
		return fmt.Errorf("не удалось создать локальный файл %s: %w", task.filename, err)
	}

	if _, err := io.Copy(dst, body); err != nil {
		_ = dst.Close()
		return fmt.Errorf("не удалось записать %s: %w", task.filename, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("не удалось закрыть %s: %w", task.filename, err)
	}

	d.log.DebugContext(ctx, "Файл скачан", "category", subdir, "filename", task.filename)
	return nil
}
