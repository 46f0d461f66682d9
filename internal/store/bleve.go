package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/Aman-CERP/indexprep/internal/item"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

const (
	// IgnoreCharacterFilterType is the registered char filter constructor.
	IgnoreCharacterFilterType = "ignore_character"

	// IgnoreCharacterFilterName is the configured char filter instance.
	IgnoreCharacterFilterName = "indexprep_ignore_character"

	// AnalyzerName is the default analyzer of sink indexes.
	AnalyzerName = "indexprep_analyzer"

	// DatasourceField holds the item datasource in bleve documents.
	DatasourceField = "_datasource"
)

func init() {
	if err := registry.RegisterCharFilter(IgnoreCharacterFilterType, ignoreCharacterFilterConstructor); err != nil {
		panic(fmt.Sprintf("store: %v", err))
	}
}

// BleveSink writes batches into a bleve index. The index analyzer strips
// the same characters as the ignore_character processor, so queries are
// normalized like the indexed text.
type BleveSink struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	lock   *FileLock
	closed bool
}

var _ Sink = (*BleveSink)(nil)

// NewBleveSink opens or creates a bleve index at path. An empty path
// creates an in-memory index. filter configures the analyzer's char
// filter for new indexes; existing indexes keep their stored mapping.
func NewBleveSink(path string, filter processor.NormalizerConfig) (*BleveSink, error) {
	indexMapping, err := createIndexMapping(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	if path == "" {
		idx, err := bleve.NewMemOnly(indexMapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
		return &BleveSink{index: idx}, nil
	}

	lock, err := acquire(path)
	if err != nil {
		return nil, err
	}

	idx, err := openBleve(path, indexMapping)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &BleveSink{index: idx, path: path, lock: lock}, nil
}

func openBleve(path string, indexMapping mapping.IndexMapping) (bleve.Index, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if validErr := validateIndexIntegrity(path); validErr != nil {
		slog.Warn("bleve_index_corrupted",
			slog.String("path", path),
			slog.String("error", validErr.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
		}
		slog.Info("bleve_index_cleared", slog.String("path", path))
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}
	return idx, nil
}

// validateIndexIntegrity checks that an existing index has readable
// metadata. A missing index is valid.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// createIndexMapping builds a mapping whose default analyzer runs the
// ignore_character char filter before unicode tokenization.
func createIndexMapping(filter processor.NormalizerConfig) (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	sets := make([]interface{}, len(filter.CharacterSets))
	for i, code := range filter.CharacterSets {
		sets[i] = code
	}
	err := indexMapping.AddCustomCharFilter(IgnoreCharacterFilterName, map[string]interface{}{
		"type":           IgnoreCharacterFilterType,
		"ignorable":      filter.Ignorable,
		"character_sets": sets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add char filter: %w", err)
	}

	err = indexMapping.AddCustomAnalyzer(AnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"char_filters":  []string{IgnoreCharacterFilterName},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = AnalyzerName
	return indexMapping, nil
}

// Write indexes the batch in one bleve batch.
func (s *BleveSink) Write(ctx context.Context, b *item.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	batch := s.index.NewBatch()
	for _, it := range b.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := DocumentFromItem(it)
		if err := batch.Index(doc.ID, bleveDocument(doc)); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	slog.Debug("bleve_sink_write",
		slog.String("path", s.path),
		slog.Int("documents", b.Len()))
	return nil
}

// Count implements Sink.
func (s *BleveSink) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("index is closed")
	}
	n, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Match implements Sink. The query goes through the index analyzer, so it
// is normalized like the indexed text.
func (s *BleveSink) Match(ctx context.Context, text string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(text))
	req.Size = limit
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Close implements Sink.
func (s *BleveSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.index.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// bleveDocument maps a document onto bleve's dynamic mapping. Single
// values are stored as scalars.
func bleveDocument(doc *Document) map[string]interface{} {
	out := make(map[string]interface{}, len(doc.Fields)+1)
	out[DatasourceField] = doc.Datasource
	for id, values := range doc.Fields {
		converted := make([]interface{}, len(values))
		for i, v := range values {
			converted[i] = bleveValue(v)
		}
		if len(converted) == 1 {
			out[id] = converted[0]
		} else {
			out[id] = converted
		}
	}
	return out
}

func bleveValue(v any) interface{} {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x
	}
	if n, ok := item.ToNumber(v); ok {
		return n
	}
	return item.ToText(v)
}

func ignoreCharacterFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.CharFilter, error) {
	cfg := processor.NormalizerConfig{}
	if v, ok := config["ignorable"].(string); ok {
		cfg.Ignorable = v
	}
	switch sets := config["character_sets"].(type) {
	case []interface{}:
		for _, s := range sets {
			if code, ok := s.(string); ok {
				cfg.CharacterSets = append(cfg.CharacterSets, code)
			}
		}
	case []string:
		cfg.CharacterSets = append(cfg.CharacterSets, sets...)
	}

	if errs := processor.ValidateNormalizerConfig(cfg); len(errs) > 0 {
		return nil, errs
	}
	return &ignoreCharacterFilter{normalizer: processor.NewNormalizer(cfg, 0)}, nil
}

// ignoreCharacterFilter implements analysis.CharFilter.
type ignoreCharacterFilter struct {
	normalizer *processor.Normalizer
}

// Filter implements analysis.CharFilter.
func (f *ignoreCharacterFilter) Filter(input []byte) []byte {
	return []byte(f.normalizer.Normalize(string(input)))
}
