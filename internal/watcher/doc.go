// Package watcher reports changes to a fixed set of files, such as a batch
// input file and its configuration.
//
// fsnotify watches the parent directories and events are filtered by name,
// so editors that save by rename are still observed. When fsnotify cannot be
// initialized the watcher falls back to polling file metadata.
//
// Events are debounced so a burst of writes produces a single batch:
//
//	w := watcher.New([]string{input, cfgPath}, watcher.DefaultOptions())
//	go func() { _ = w.Start(ctx) }()
//	defer w.Stop()
//
//	for batch := range w.Events() {
//	    // re-run the pipeline
//	}
package watcher
