package config

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// WatchNetworks starts a background goroutine that re-reads a network
// description file whenever it changes and invokes fn with the network name
// and the new text. Unreadable files are skipped (the caller keeps serving
// the previously loaded network). Call the returned stop function to clean
// up.
func WatchNetworks(refs []NetworkRef, fn func(name, text string)) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("network watcher: %w", err)
	}
	byPath := make(map[string]string, len(refs))
	for _, ref := range refs {
		if err := w.Add(ref.Path); err != nil {
			w.Close()
			return nil, fmt.Errorf("network watcher add %s: %w", ref.Path, err)
		}
		byPath[ref.Path] = ref.Name
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				name, tracked := byPath[ev.Name]
				if !tracked {
					continue
				}
				data, err := os.ReadFile(ev.Name)
				if err != nil {
					continue
				}
				fn(name, string(data))
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}
