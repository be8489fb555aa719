package corpus

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a file-backed SQLite database and a Store for
// testing. It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) *Store {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := openTestDB(dbFile + testDSNParams)
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SetupSchema(db), "failed to set up schema")

	s, err := NewStore(db)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func seq(weight int, tokens ...string) Sequence {
	return Sequence{Tokens: tokens, Weight: weight}
}

func TestSetupSchemaIdempotent(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := openTestDB(dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SetupSchema(db))
	require.NoError(t, SetupSchema(db), "second SetupSchema call should succeed")
}

func TestAddAndLoadSequences(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	in := []Sequence{
		seq(1, "one", "fish", "two", "fish"),
		seq(3, "red", "fish"),
	}
	require.NoError(t, s.AddSequences(ctx, "fish", in))

	got, err := s.LoadSequences(ctx, "fish")
	require.NoError(t, err)
	require.Len(t, got, 2)

	byFirst := make(map[string]Sequence)
	for _, sq := range got {
		byFirst[sq.Tokens[0]] = sq
	}
	assert.Equal(t, []string{"one", "fish", "two", "fish"}, byFirst["one"].Tokens)
	assert.Equal(t, 1, byFirst["one"].Weight)
	assert.Equal(t, []string{"red", "fish"}, byFirst["red"].Tokens)
	assert.Equal(t, 3, byFirst["red"].Weight)
}

func TestAddSequencesAccumulatesFrequency(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSequences(ctx, "c", []Sequence{seq(2, "a", "b")}))
	require.NoError(t, s.AddSequences(ctx, "c", []Sequence{seq(5, "a", "b")}))

	got, err := s.LoadSequences(ctx, "c")
	require.NoError(t, err)
	require.Len(t, got, 1, "identical sequences should collapse into one row")
	assert.Equal(t, 7, got[0].Weight)
}

func TestAddSequencesDefaultsWeight(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSequences(ctx, "c", []Sequence{{Tokens: []string{"a", "b"}}}))

	got, err := s.LoadSequences(ctx, "c")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Weight)
}

func TestAddSequencesSkipsEmpty(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSequences(ctx, "c", []Sequence{{}, seq(1, "a")}))

	got, err := s.LoadSequences(ctx, "c")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestVocabularySharedBetweenCorpora(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSequences(ctx, "one", []Sequence{seq(1, "shared", "token")}))
	require.NoError(t, s.AddSequences(ctx, "two", []Sequence{seq(1, "shared", "other")}))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM corpus_vocabulary`).Scan(&count))
	assert.Equal(t, 3, count, "tokens should be interned once across corpora")
}

func TestList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.AddSequences(ctx, "names", []Sequence{seq(1, "a"), seq(1, "b")}))
	require.NoError(t, s.AddSequences(ctx, "words", []Sequence{seq(1, "c")}))

	got, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got["names"].Sequences)
	assert.Equal(t, 1, got["words"].Sequences)
}

func TestLoadSequencesUnknownCorpus(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.LoadSequences(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownCorpus)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSequences(ctx, "doomed", []Sequence{seq(1, "a", "b")}))
	require.NoError(t, s.AddSequences(ctx, "kept", []Sequence{seq(1, "c", "d")}))

	require.NoError(t, s.Delete(ctx, "doomed"))

	_, err := s.LoadSequences(ctx, "doomed")
	assert.ErrorIs(t, err, ErrUnknownCorpus)

	got, err := s.LoadSequences(ctx, "kept")
	require.NoError(t, err)
	assert.Len(t, got, 1, "other corpora should be untouched")

	assert.ErrorIs(t, s.Delete(ctx, "doomed"), ErrUnknownCorpus)
}
