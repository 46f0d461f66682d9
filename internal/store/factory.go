package store

import (
	"fmt"
	"log/slog"

	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

// Options selects and configures a sink.
type Options struct {
	Backend Backend
	// Path of the index. Empty creates an in-memory index.
	Path string
	// Filter configures the bleve analyzer's char filter.
	Filter processor.NormalizerConfig
}

// Open creates the sink for opts. BackendNone returns a nil Sink and no
// error.
func Open(opts Options) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendBleve:
		sink, err = NewBleveSink(opts.Path, opts.Filter)
	case BackendSQLite:
		sink, err = NewSQLiteSink(opts.Path)
	default:
		return nil, amerrors.New(amerrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown sink backend %q", opts.Backend), nil).
			WithSuggestion("Use one of: none, bleve, sqlite")
	}
	if err != nil {
		if amerrors.GetCode(err) != "" {
			return nil, err
		}
		return nil, amerrors.New(amerrors.ErrCodeIndexFailed, "failed to open index", err).
			WithDetail("backend", string(opts.Backend)).
			WithDetail("path", opts.Path)
	}

	slog.Debug("sink_opened",
		slog.String("backend", string(opts.Backend)),
		slog.String("path", opts.Path))
	return sink, nil
}

// acquire takes the sink lock for path or reports that another process
// holds it.
func acquire(path string) (*FileLock, error) {
	lock := NewFileLock(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, amerrors.IOError("failed to lock index", err).WithDetail("lock", lock.Path())
	}
	if !ok {
		return nil, amerrors.New(amerrors.ErrCodeIndexLocked,
			fmt.Sprintf("index %s is in use by another process", path), nil).
			WithDetail("lock", lock.Path()).
			WithSuggestion("Wait for the other indexprep process to finish")
	}
	return lock, nil
}
