package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexprep/internal/item"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

func TestBleveSink_WriteAndCount(t *testing.T) {
	ctx := context.Background()
	sink, err := NewBleveSink("", processor.DefaultNormalizerConfig())
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(ctx, sampleBatch()))

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBleveSink_CharFilterNormalizesIndexAndQuery(t *testing.T) {
	// Given: a sink stripping dash punctuation
	ctx := context.Background()
	sink, err := NewBleveSink("", processor.NormalizerConfig{CharacterSets: []string{"Pd"}})
	require.NoError(t, err)
	defer sink.Close()

	it := item.New("entity:node/1:en", "")
	it.SetField("title", item.NewField(item.TypeText, "e-mail marketing"))
	require.NoError(t, sink.Write(ctx, item.NewBatch(it)))

	// When: searching for the joined word
	ids, err := sink.Match(ctx, "email", 10)
	require.NoError(t, err)

	// Then: the dash was removed before tokenizing
	assert.Equal(t, []string{"entity:node/1:en"}, ids)

	// Then: a hyphenated query is normalized the same way
	ids, err = sink.Match(ctx, "E-Mail", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"entity:node/1:en"}, ids)
}

func TestBleveSink_ReplacesDocuments(t *testing.T) {
	ctx := context.Background()
	sink, err := NewBleveSink("", processor.NormalizerConfig{})
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(ctx, sampleBatch()))
	require.NoError(t, sink.Write(ctx, sampleBatch()))

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBleveSink_ClosedSink(t *testing.T) {
	sink, err := NewBleveSink("", processor.NormalizerConfig{})
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	assert.Error(t, sink.Write(context.Background(), sampleBatch()))
	_, err = sink.Count(context.Background())
	assert.Error(t, err)
}

func TestBleveSink_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.bleve")

	sink, err := NewBleveSink(path, processor.DefaultNormalizerConfig())
	require.NoError(t, err)
	require.NoError(t, sink.Write(ctx, sampleBatch()))
	require.NoError(t, sink.Close())

	reopened, err := NewBleveSink(path, processor.DefaultNormalizerConfig())
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIgnoreCharacterFilter(t *testing.T) {
	f, err := ignoreCharacterFilterConstructor(map[string]interface{}{
		"ignorable":      `['¿¡!?,.:;]`,
		"character_sets": []interface{}{"Pd", "Zz"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Qué pasa  ahora", string(f.Filter([]byte("¿Qué pasa - ahora?"))))
}

func TestIgnoreCharacterFilter_RegisteredOnce(t *testing.T) {
	// The filter is registered at package init, so a second registration
	// under the same name is refused.
	err := registry.RegisterCharFilter(IgnoreCharacterFilterType, ignoreCharacterFilterConstructor)

	assert.ErrorContains(t, err, IgnoreCharacterFilterType)
}

func TestIgnoreCharacterFilter_InvalidPattern(t *testing.T) {
	_, err := ignoreCharacterFilterConstructor(map[string]interface{}{"ignorable": "("}, nil)
	assert.Error(t, err)
}
