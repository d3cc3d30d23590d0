package prefs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"midideck/internal/pkg/logger"
)

var log = logger.GetLogger()

// DetectChanges watches the store directory and reports the name of every
// document written to it, own writes included. The channel closes when the
// context is cancelled.
func (s *Store) DetectChanges(ctx context.Context) <-chan string {
	var change = make(chan string)

	go func() {
		defer close(change)
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return
		}

		go func() {
			<-ctx.Done()
			err := watcher.Close()
			if err != nil {
				log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
			}
		}()

		err = watcher.Add(s.dir)
		if err != nil {
			log.Info(fmt.Sprintf("cannot watch %s: %v", s.dir, err), logger.Warning)
			return
		}

		for event := range watcher.Events {
			if event.Op != fsnotify.Write && event.Op != fsnotify.Create {
				continue
			}

			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			doc := strings.TrimSuffix(name, ".json")
			s.Invalidate(doc)
			log.Info(fmt.Sprintf("preference change detected: %s", doc), logger.Debug)
			change <- doc
		}
	}()

	return change
}
