package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"loanquote/internal/models"
)

// DirRepository reads one lender document per file from a directory.
// Files are read in name order; the result is cached until Reload.
type DirRepository struct {
	dir    string
	logger *zap.Logger
	opts   options

	mu      sync.Mutex
	configs []models.LenderConfig
	loaded  bool
}

// NewDirRepository creates a new directory-backed repository.
func NewDirRepository(dir string, logger *zap.Logger, opts ...Option) *DirRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirRepository{
		dir:    dir,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

// ListConfigs returns the cached configs, scanning the directory on first use.
func (r *DirRepository) ListConfigs(ctx context.Context) ([]models.LenderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		if err := r.load(ctx); err != nil {
			return nil, err
		}
	}
	return slices.Clone(r.configs), nil
}

// Reload rescans the directory and replaces the cache.
func (r *DirRepository) Reload(ctx context.Context) ([]models.LenderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(r.configs), nil
}

func (r *DirRepository) load(ctx context.Context) error {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", r.dir, ErrNoConfigs)
	}
	if err != nil {
		return fmt.Errorf("read lender dir: %w", err)
	}

	configs := make([]models.LenderConfig, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		format, ok := FormatFor(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		cfg, err := r.readFile(path, format)
		if err != nil {
			r.logger.Warn("skipping lender config", zap.String("file", path), zap.Error(err))
			r.opts.failed()
			continue
		}
		configs = append(configs, cfg)
	}

	r.logger.Info("lender configs loaded", zap.String("dir", r.dir), zap.Int("count", len(configs)))
	r.configs = configs
	r.loaded = true
	return nil
}

func (r *DirRepository) readFile(path string, format Format) (models.LenderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.LenderConfig{}, fmt.Errorf("read file: %w", err)
	}
	return Decode(data, format)
}
