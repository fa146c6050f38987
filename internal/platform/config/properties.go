package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Properties is a string-keyed identity property source. Nested YAML mappings
// are flattened into dotted keys:
//
//	SelfRegistration:
//	  EnableDetailedApiResponse: true
//
// becomes "SelfRegistration.EnableDetailedApiResponse" = "true".
type Properties struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// NewProperties builds an in-memory property source, mostly for tests and the CLI.
func NewProperties(values map[string]string) *Properties {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Properties{values: copied}
}

// LoadProperties reads path. An empty path yields an empty source.
func LoadProperties(path string) (*Properties, error) {
	p := &Properties{path: path, values: map[string]string{}}
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the backing file and swaps the values atomically.
func (p *Properties) Reload() error {
	if p.path == "" {
		return nil
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read properties %s: %w", p.path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse properties %s: %w", p.path, err)
	}
	values := make(map[string]string)
	flatten("", doc, values)

	p.mu.Lock()
	p.values = values
	p.mu.Unlock()
	return nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// String returns the raw value for key, or "" when unset.
func (p *Properties) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[key]
}

// Bool reads key as a boolean. Unset or blank values yield def; otherwise only
// a case-insensitive "true" is true, so "1" or "yes" read as false.
func (p *Properties) Bool(key string, def bool) bool {
	raw := strings.TrimSpace(p.String(key))
	if raw == "" {
		return def
	}
	return strings.EqualFold(raw, "true")
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are still picked up.
func (p *Properties) Watch(ctx context.Context, logger *slog.Logger) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create properties watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("watch %s: %w", p.path, err)
	}
	target := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := p.Reload(); err != nil {
				// keep serving the last good values
				logger.WarnContext(ctx, "properties reload failed", "path", p.path, "error", err)
				continue
			}
			logger.InfoContext(ctx, "properties reloaded", "path", p.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "properties watcher error", "error", err)
		}
	}
}
