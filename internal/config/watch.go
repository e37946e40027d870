// pattern: Imperative Shell

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports changes to the config file made by other processes
// or editors. It watches the parent directory because editors and atomic
// writers replace the file rather than writing it in place.
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan struct{}
}

// NewFileWatcher creates a watcher for the store's file.
func NewFileWatcher(path string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}
	return &FileWatcher{
		path:    filepath.Clean(path),
		watcher: w,
		changes: make(chan struct{}, 1),
	}, nil
}

// Changes delivers one notification per burst of file events.
func (fw *FileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// Run forwards file events until ctx is cancelled, then closes the watcher.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer func() { _ = fw.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case fw.changes <- struct{}{}:
			default:
			}

		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
