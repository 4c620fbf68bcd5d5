package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"webex-room-archiver/internal/archiver"
	"webex-room-archiver/internal/pkg/config"
)

// RoomArchiver определяет интерфейс оркестратора, который выполняет
// архивирование комнаты.
type RoomArchiver interface {
	ArchiveRoom(ctx context.Context, roomID string, opts config.Archive) (*archiver.Result, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	arch       RoomArchiver
}

// archiveRequest — тело запроса на запуск задачи архивирования.
type archiveRequest struct {
	RoomID string `json:"room_id"`
	// Options при наличии полностью заменяет параметры архивирования
	// из конфигурации сервера для этой задачи.
	Options *config.Archive `json:"options,omitempty"`
}

// taskResponse — представление задачи в API.
type taskResponse struct {
	TaskID       string `json:"task_id"`
	RoomID       string `json:"room_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	FolderPath   string `json:"folder_path,omitempty"`
	ArchivePath  string `json:"archive_path,omitempty"`
}

// New создает новый экземпляр Server
func New(cfg *config.Config, arch RoomArchiver, taskStore *TaskStore) (*Server, error) {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		// Конечная точка для запуска новой задачи архивирования
		r.Post("/archives", func(w http.ResponseWriter, r *http.Request) {
			var req archiveRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Не удалось разобрать тело запроса", http.StatusBadRequest)
				return
			}
			if req.RoomID == "" {
				http.Error(w, "room_id обязателен", http.StatusBadRequest)
				return
			}

			opts := cfg.Archive
			if req.Options != nil {
				opts = *req.Options
			}
			// Ошибка конфигурации выявляется синхронно, до создания задачи
			if err := opts.Validate(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			// Генерация уникального идентификатора задачи
			taskID := uuid.NewString()
			taskStore.CreateTask(taskID, req.RoomID, cfg.Server.TaskTTL())

			// Запуск архивирования в горутине
			go func() {
				taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

				result, err := arch.ArchiveRoom(context.Background(), req.RoomID, opts)
				if err != nil {
					slog.Error("Задача архивирования завершилась с ошибкой",
						"task_id", taskID, "room_id", req.RoomID, "error", err)
					taskStore.UpdateTaskError(taskID, err.Error())
					return
				}
				taskStore.UpdateTaskResult(taskID, result)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"task_id": taskID,
			})
		})

		// Конечная точка для опроса статуса задачи
		r.Get("/archives/{taskID}", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "Задача не найдена", http.StatusNotFound)
				return
			}

			resp := taskResponse{
				TaskID:       task.ID,
				RoomID:       task.RoomID,
				Status:       string(task.Status),
				ErrorMessage: task.ErrorMessage,
			}
			if task.Result != nil {
				resp.FolderPath = task.Result.FolderPath
				resp.ArchivePath = task.Result.ArchivePath
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		})
	})

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		HTTPServer: httpServer,
		cfg:        cfg,
		taskStore:  taskStore,
		arch:       arch,
	}, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown останавливает HTTP-сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}
