package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"idrecon/internal/backend"
	"idrecon/internal/domain"
)

// MaxFileSize caps an uploaded source file.
const MaxFileSize = 64 << 20

// ErrNotConfirmed is returned by destructive actions issued without the
// operator's confirmation. No request is sent in that case.
var ErrNotConfirmed = errors.New("действие не подтверждено")

// Service uploads and clears sources through the backend.
type Service struct {
	client *backend.Client
	logger *slog.Logger
}

// NewService creates an upload service.
func NewService(client *backend.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// Upload sends one source file. CSV content is normalised to UTF-8 first.
func (s *Service) Upload(ctx context.Context, sourceKey, filename string, r io.Reader) (*backend.UploadResult, error) {
	src, err := Lookup(sourceKey)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, domain.ErrValidation("Нет имени файла")
	}
	if !CheckFilename(filename) {
		return nil, domain.ErrValidation("неподдерживаемый формат файла %q: ожидается .xlsx, .xls или .csv", filename)
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, domain.ErrValidation("файл больше %d МБ", MaxFileSize>>20)
	}
	if IsCSV(filename) {
		var enc string
		data, enc, err = NormalizeCSV(data)
		if err != nil {
			return nil, domain.ErrValidation("не удалось прочитать CSV: %v", err)
		}
		s.logger.Debug("csv normalised", "source", src.Key, "encoding", enc)
	}

	res, err := s.client.Upload(ctx, src.Key, filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", src.Key, err)
	}
	s.logger.Info("source uploaded", "source", src.Key, "filename", res.Filename, "rows", int(res.Rows), "skipped", int(res.Skipped))
	return res, nil
}

// Clear deletes one source after confirmation.
func (s *Service) Clear(ctx context.Context, sourceKey string, confirmed bool) (*backend.ClearResult, error) {
	src, err := Lookup(sourceKey)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	res, err := s.client.Clear(ctx, src.Key)
	if err != nil {
		return nil, fmt.Errorf("clear %s: %w", src.Key, err)
	}
	s.logger.Info("source cleared", "source", src.Key, "deleted", int(res.Deleted))
	return res, nil
}

// ClearAll deletes every source after confirmation.
func (s *Service) ClearAll(ctx context.Context, confirmed bool) (*backend.ClearAllResult, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	res, err := s.client.ClearAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear all: %w", err)
	}
	s.logger.Info("all sources cleared", "deleted", res.Deleted)
	return res, nil
}

// ConfirmPrompt is the question asked before clearing key ("" for all).
func ConfirmPrompt(key string) string {
	if key == "" {
		return "Очистить ВСЮ базу данных (AD + MFA + Кадры)?"
	}
	src, err := Lookup(key)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Удалить все данные %s?", src.Label)
}
