// Package repository loads lender rule documents.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"loanquote/internal/models"
)

// ErrNoConfigs is returned when the configured source does not exist.
var ErrNoConfigs = errors.New("no lender configs")

// LenderRepository lists the lender configs to evaluate, in a stable order.
type LenderRepository interface {
	ListConfigs(ctx context.Context) ([]models.LenderConfig, error)
}

// FailureObserver is notified for every lender document that is skipped.
type FailureObserver interface {
	ObserveConfigLoadFailure()
}

// Option configures a repository.
type Option func(*options)

type options struct {
	observer FailureObserver
}

// WithFailureObserver reports skipped documents to o.
func WithFailureObserver(o FailureObserver) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) failed() {
	if o.observer != nil {
		o.observer.ObserveConfigLoadFailure()
	}
}

// Format is the encoding of a lender document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor returns the document format implied by a file name.
func FormatFor(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Decode parses and validates one lender document.
func Decode(data []byte, format Format) (models.LenderConfig, error) {
	cfg, err := decode(data, format)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, format Format) (models.LenderConfig, error) {
	var cfg models.LenderConfig

	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return cfg, fmt.Errorf("decode yaml: %w", err)
		}
		data = converted
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode json: %w", err)
	}
	return cfg, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// JSON decoding rules of models.LenderConfig.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(stringKeys(doc))
}

// stringKeys converts YAML maps with non-string keys (e.g. `80:` under
// interest_rates_by_ltv) into JSON-compatible maps.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = stringKeys(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = stringKeys(item)
		}
		return out
	default:
		return v
	}
}

// FindConfig returns the config for bankName, or nil if it is not listed.
func FindConfig(ctx context.Context, repo LenderRepository, bankName string) (*models.LenderConfig, error) {
	configs, err := repo.ListConfigs(ctx)
	if errors.Is(err, ErrNoConfigs) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range configs {
		if configs[i].BankName == bankName {
			return &configs[i], nil
		}
	}
	return nil, nil
}
