package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/multierr"

	"github.com/mmeshcher/apolo-gym/internal/model"
)

// FileRepository хранит документ состояния в JSON-файле и перезаписывает его целиком при каждом сохранении.
type FileRepository struct {
	path string
}

// NewFileRepository создаёт шлюз хранения для указанного файла.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path возвращает путь к файлу данных.
func (r *FileRepository) Path() string {
	return r.path
}

// Load читает документ состояния. Если файла нет, возвращает nil без ошибки.
func (r *FileRepository) Load(ctx context.Context) (_ *model.State, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	return decodeState(buf.Bytes())
}

// Save атомарно заменяет файл данных, создавая каталог при необходимости.
func (r *FileRepository) Save(ctx context.Context, s model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeState(s)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data folder: %w", err)
		}
	}

	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}

	return nil
}

// Close реализует общий контракт шлюза; у файлового хранилища нет открытых ресурсов.
func (r *FileRepository) Close() error {
	return nil
}
