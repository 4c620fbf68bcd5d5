package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"webex-room-archiver/internal/adapters/render"
	"webex-room-archiver/internal/adapters/storage"
	"webex-room-archiver/internal/adapters/webex"
	"webex-room-archiver/internal/archiver"
	applog "webex-room-archiver/internal/log"
	"webex-room-archiver/internal/pkg/config"
	"webex-room-archiver/internal/pkg/term"
	"webex-room-archiver/internal/ports"
)

func main() {
	opts := config.DefaultArchive()

	var outDir string
	var verbose bool
	flag.BoolVar(&opts.TextFormat, "text", opts.TextFormat, "Create a text transcript")
	flag.BoolVar(&opts.HTMLFormat, "html", opts.HTMLFormat, "Create an HTML transcript")
	flag.BoolVar(&opts.JSONFormat, "json", opts.JSONFormat, "Create a JSON transcript")
	flag.BoolVar(&opts.CompressFolder, "compress", opts.CompressFolder, "Compress the archive folder")
	flag.BoolVar(&opts.DeleteFolder, "delete-folder", opts.DeleteFolder, "Delete the folder after compression")
	flag.BoolVar(&opts.OverwriteFolder, "overwrite", opts.OverwriteFolder, "Overwrite an existing archive folder")
	flag.BoolVar(&opts.ReverseOrder, "reverse", opts.ReverseOrder, "Order messages most recent on the bottom")
	flag.BoolVar(&opts.DownloadAttachments, "attachments", opts.DownloadAttachments, "Download attachments")
	flag.BoolVar(&opts.DownloadAvatars, "avatars", opts.DownloadAvatars, "Download author avatars")
	flag.IntVar(&opts.DownloadWorkers, "workers", opts.DownloadWorkers, "Number of download workers")
	flag.StringVar(&opts.TimestampFormat, "timestamp-format", opts.TimestampFormat, "Timestamp format (Go layout)")
	flag.StringVar(&opts.FileFormat, "file-format", opts.FileFormat, "Compression format: tgz or zip")
	flag.BoolVar(&opts.SpecialToken, "special-token", opts.SpecialToken, "Token has access to all room messages")
	flag.StringVar(&outDir, "out", ".", "Directory for archive folders")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one room ID is required. Usage: archiver [flags] <room-id>")
	}
	roomID := flag.Arg(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := applog.NewMaskedLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Токен из конфигурации/окружения, иначе интерактивный запрос
	if cfg.API.AccessToken == "" {
		token, err := term.NewTerminal().AccessToken()
		if err != nil {
			log.Fatalf("Не удалось прочитать токен доступа: %v", err)
		}
		cfg.API.AccessToken = token
	}

	client := webex.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, cfg.API.SingleRequestTimeout())
	store := storage.NewStore(outDir)
	renderers := map[string]ports.Renderer{
		"txt":  render.NewTextRenderer(),
		"html": render.NewHTMLRenderer(),
		"json": render.NewJSONRenderer(),
	}
	arch := archiver.New(client, client, store, renderers, archiver.WithLogger(logger))

	result, err := arch.ArchiveRoom(context.Background(), roomID, opts)
	if err != nil {
		log.Fatalf("Архивирование завершилось с ошибкой: %v", err)
	}

	if result.ArchivePath != "" {
		fmt.Println(result.ArchivePath)
	}
	if result.FolderPath != "" {
		fmt.Println(result.FolderPath)
	}
}
