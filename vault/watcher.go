package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/noelzubin/notes_search/logger"
)

// Watch calls onChange whenever a note under the root is created, written,
// removed or renamed. fsnotify doesn't recurse so every directory is
// watched, including the ones created later. Blocks until ctx is done.
func (v *FileVault) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := v.watchTree(watcher, v.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if v.handle(watcher, event) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watching %s: %v", v.root, err)
		}
	}
}

// handle reports whether event changes the set of notes.
func (v *FileVault) handle(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := v.watchTree(watcher, event.Name); err != nil {
				logger.Warn("watching %s: %v", event.Name, err)
			}
			return true
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	// a removed directory has no extension but may have held notes
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && filepath.Ext(event.Name) == "" {
		return true
	}
	if !v.isNote(event.Name) {
		return false
	}
	logger.Debug("note changed: %s", event)
	return true
}

func (v *FileVault) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != v.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
