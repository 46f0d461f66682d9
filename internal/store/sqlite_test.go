package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexprep/internal/item"
)

func TestSQLiteSink_WriteCountMatch(t *testing.T) {
	// Given: an in-memory sink with two users
	ctx := context.Background()
	sink, err := NewSQLiteSink("")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(ctx, sampleBatch()))

	// Then: both are counted
	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Then: field content is searchable
	ids, err := sink.Match(ctx, "robert", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"entity:user/2:en"}, ids)

	ids, err = sink.Match(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"entity:user/1:en"}, ids)
}

func TestSQLiteSink_RewriteReplacesRows(t *testing.T) {
	ctx := context.Background()
	sink, err := NewSQLiteSink("")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(ctx, sampleBatch()))

	// When: rewriting bob with a new name
	bob := item.New("entity:user/2:en", "")
	bob.SetField("entity:user|name", item.NewField(item.TypeString, "Bobby"))
	require.NoError(t, sink.Write(ctx, item.NewBatch(bob)))

	// Then: the old name is gone
	ids, err := sink.Match(ctx, "robert", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteSink_QuotesInQuery(t *testing.T) {
	sink, err := NewSQLiteSink("")
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.Match(context.Background(), `say "hi`, 10)
	assert.NoError(t, err)
}

func TestSQLiteSink_Persistent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "users.db")

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(ctx, sampleBatch()))
	require.NoError(t, sink.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteSink_CorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database at all, just some bytes"), 0644))

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	n, err := sink.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLiteSink_ClosedSink(t *testing.T) {
	sink, err := NewSQLiteSink("")
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	assert.Error(t, sink.Write(context.Background(), sampleBatch()))
}
