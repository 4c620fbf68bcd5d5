package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"webex-room-archiver/internal/domain"
	"webex-room-archiver/internal/ports"
)

// Mocks for dependencies
type mockRoomAPI struct{ mock.Mock }

func (m *mockRoomAPI) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *mockRoomAPI) GetPerson(ctx context.Context, personID string) (domain.Person, error) {
	args := m.Called(ctx, personID)
	return args.Get(0).(domain.Person), args.Error(1)
}

func (m *mockRoomAPI) GetMe(ctx context.Context) (domain.Person, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Person), args.Error(1)
}

func (m *mockRoomAPI) ListMessages(ctx context.Context, roomID string, filter ports.MessageFilter, yield func(domain.Message) error) error {
	args := m.Called(ctx, roomID, filter, yield)
	return args.Error(0)
}

type mockFileService struct{ mock.Mock }

func (m *mockFileService) ProbeFile(ctx context.Context, url string) (ports.FileHead, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(ports.FileHead), args.Error(1)
}

func (m *mockFileService) StreamFile(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// memStaging — потокобезопасная папка запуска в памяти для тестов пула
// скачивания.
type memStaging struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
	dirs  []string
}

func newMemStaging() *memStaging {
	return &memStaging{files: make(map[string]*bytes.Buffer)}
}

func (s *memStaging) Path() string { return "/mem" }

func (s *memStaging) Mkdir(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = append(s.dirs, rel)
	return nil
}

func (s *memStaging) WriteFile(rel string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rel] = bytes.NewBuffer(data)
	return nil
}

type memFile struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (f *memFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Write(p)
}

func (f *memFile) Close() error { return nil }

func (s *memStaging) Create(rel string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := &bytes.Buffer{}
	s.files[rel] = buf
	return &memFile{buf: buf, mu: &s.mu}, nil
}

func (s *memStaging) CopyStaticAssets() error { return nil }

func (s *memStaging) Compress(format string) (string, error) {
	return "", fmt.Errorf("not supported in tests")
}

func (s *memStaging) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*bytes.Buffer)
	return nil
}

func (s *memStaging) fileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

var _ ports.Staging = (*memStaging)(nil)
