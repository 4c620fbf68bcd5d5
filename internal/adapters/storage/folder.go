// Package storage реализует порт ArchiveStore поверх локальной файловой
// системы: папка запуска, статические ресурсы и упаковка в один архив.
package storage

import (
	"archive/tar"
	"archive/zip"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"webex-room-archiver/internal/ports"
)

//go:embed assets/default.css
var staticAssets embed.FS

// Store создает папки запусков внутри корневой директории.
type Store struct {
	root string
}

var _ ports.ArchiveStore = (*Store)(nil)

// NewStore создает новый экземпляр Store с указанным корнем.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Setup создает папку запуска. При overwrite существующая папка с тем же
// именем предварительно удаляется; без overwrite существующая папка — ошибка.
func (s *Store) Setup(name string, overwrite bool) (ports.Staging, error) {
	path := filepath.Join(s.root, name)

	if overwrite {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("не удалось удалить существующую папку %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать корневую директорию %s: %w", s.root, err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать папку запуска %s: %w", path, err)
	}

	return &Folder{path: path}, nil
}

// Folder — папка одного запуска архивирования.
type Folder struct {
	path string
}

var _ ports.Staging = (*Folder)(nil)

// Path возвращает абсолютный путь папки.
func (f *Folder) Path() string {
	return f.path
}

// Mkdir создает подпапку внутри папки запуска.
func (f *Folder) Mkdir(rel string) error {
	if err := os.MkdirAll(filepath.Join(f.path, rel), 0o755); err != nil {
		return fmt.Errorf("не удалось создать подпапку %s: %w", rel, err)
	}
	return nil
}

// WriteFile записывает готовый файл по относительному пути.
func (f *Folder) WriteFile(rel string, data []byte) error {
	if err := os.WriteFile(filepath.Join(f.path, rel), data, 0o644); err != nil {
		return fmt.Errorf("не удалось записать файл %s: %w", rel, err)
	}
	return nil
}

// Create открывает файл для потоковой записи.
func (f *Folder) Create(rel string) (io.WriteCloser, error) {
	file, err := os.Create(filepath.Join(f.path, rel))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать файл %s: %w", rel, err)
	}
	return file, nil
}

// CopyStaticAssets копирует встроенные статические ресурсы рендеринга в
// подпапку css папки запуска.
func (f *Folder) CopyStaticAssets() error {
	if err := f.Mkdir("css"); err != nil {
		return err
	}

	return fs.WalkDir(staticAssets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := staticAssets.ReadFile(path)
		if err != nil {
			return fmt.Errorf("не удалось прочитать встроенный ресурс %s: %w", path, err)
		}
		return f.WriteFile(filepath.Join("css", filepath.Base(path)), data)
	})
}

// Remove полностью удаляет папку запуска со всем содержимым.
func (f *Folder) Remove() error {
	if err := os.RemoveAll(f.path); err != nil {
		return fmt.Errorf("не удалось удалить папку %s: %w", f.path, err)
	}
	return nil
}

// Compress упаковывает папку запуска в один архивный файл рядом с ней
// (tgz или zip) и возвращает путь к нему.
func (f *Folder) Compress(format string) (string, error) {
	switch format {
	case "tgz":
		return f.compressTgz()
	case "zip":
		return f.compressZip()
	default:
		return "", fmt.Errorf("неизвестный формат упаковки: %q", format)
	}
}

func (f *Folder) compressTgz() (string, error) {
	archivePath := f.path + ".tgz"
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("не удалось создать архив %s: %w", archivePath, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	base := filepath.Base(f.path)
	err = filepath.WalkDir(f.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(f.path, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(base, rel))

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("не удалось упаковать папку в tgz: %w", err)
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("не удалось завершить tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("не удалось завершить gzip: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("не удалось закрыть архив: %w", err)
	}
	return archivePath, nil
}

func (f *Folder) compressZip() (string, error) {
	archivePath := f.path + ".zip"
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("не удалось создать архив %s: %w", archivePath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	base := filepath.Base(f.path)
	err = filepath.WalkDir(f.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.path, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(filepath.Join(base, rel)))
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(w, file)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("не удалось упаковать папку в zip: %w", err)
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("не удалось завершить zip: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("не удалось закрыть архив: %w", err)
	}
	return archivePath, nil
}
