package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ErrUnknownCorpus is returned when an operation names a corpus that does
// not exist in the database.
var ErrUnknownCorpus = errors.New("corpus: unknown corpus")

// Sequence is one weighted token sequence of a corpus.
type Sequence struct {
	Tokens []string
	Weight int
}

// Info holds the metadata for a stored corpus.
type Info struct {
	Id        int
	Name      string
	Sequences int
}

// SetupSchema initializes the corpus tables in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaCorpora = `
CREATE TABLE IF NOT EXISTS corpus_corpora (
    corpus_id INTEGER PRIMARY KEY,
    corpus_name TEXT NOT NULL UNIQUE
);
`
		schemaVocab = `
CREATE TABLE IF NOT EXISTS corpus_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaSequences = `
CREATE TABLE IF NOT EXISTS corpus_sequences (
    corpus_id INTEGER NOT NULL,
    token_ids TEXT NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (corpus_id, token_ids)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaCorpora); err != nil {
		return fmt.Errorf("could not create corpora schema: %w", err)
	}

	if _, err = tx.Exec(schemaVocab); err != nil {
		return fmt.Errorf("could not create vocabulary schema: %w", err)
	}

	if _, err = tx.Exec(schemaSequences); err != nil {
		return fmt.Errorf("could not create sequences schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store provides access to the corpora stored in a database. It holds the
// database connection and prepared SQL statements.
type Store struct {
	db                *sql.DB
	stmtGetCorpus     *sql.Stmt
	stmtInsertCorpus  *sql.Stmt
	stmtListCorpora   *sql.Stmt
	stmtInsertVocab   *sql.Stmt
	stmtGetTokenText  *sql.Stmt
	stmtUpsertSeq     *sql.Stmt
	stmtLoadSequences *sql.Stmt
	logger            *slog.Logger
}

// NewStore creates a Store over the given database connection, pre-compiling
// all SQL statements it needs. SetupSchema must have been called first.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetCorpus, err := db.Prepare(`SELECT corpus_id FROM corpus_corpora WHERE corpus_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtInsertCorpus, err := db.Prepare(`INSERT INTO corpus_corpora (corpus_name) VALUES (?) ON CONFLICT(corpus_name) DO UPDATE SET corpus_name=excluded.corpus_name RETURNING corpus_id;`)
	if err != nil {
		return nil, err
	}

	stmtListCorpora, err := db.Prepare(`
SELECT c.corpus_id, c.corpus_name, COUNT(s.token_ids)
FROM corpus_corpora c LEFT JOIN corpus_sequences s ON s.corpus_id = c.corpus_id
GROUP BY c.corpus_id ORDER BY c.corpus_name;`)
	if err != nil {
		return nil, err
	}

	stmtInsertVocab, err := db.Prepare(`INSERT INTO corpus_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`)
	if err != nil {
		return nil, err
	}

	stmtGetTokenText, err := db.Prepare(`SELECT token_text FROM corpus_vocabulary WHERE token_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertSeq, err := db.Prepare(`INSERT INTO corpus_sequences (corpus_id, token_ids, frequency) VALUES (?, ?, ?) ON CONFLICT(corpus_id, token_ids) DO UPDATE SET frequency = frequency + excluded.frequency;`)
	if err != nil {
		return nil, err
	}

	stmtLoadSequences, err := db.Prepare(`SELECT token_ids, frequency FROM corpus_sequences WHERE corpus_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                db,
		stmtGetCorpus:     stmtGetCorpus,
		stmtInsertCorpus:  stmtInsertCorpus,
		stmtListCorpora:   stmtListCorpora,
		stmtInsertVocab:   stmtInsertVocab,
		stmtGetTokenText:  stmtGetTokenText,
		stmtUpsertSeq:     stmtUpsertSeq,
		stmtLoadSequences: stmtLoadSequences,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetCorpus.Close()
	_ = s.stmtInsertCorpus.Close()
	_ = s.stmtListCorpora.Close()
	_ = s.stmtInsertVocab.Close()
	_ = s.stmtGetTokenText.Close()
	_ = s.stmtUpsertSeq.Close()
	_ = s.stmtLoadSequences.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// List retrieves metadata for all corpora in the database, keyed by name.
func (s *Store) List(ctx context.Context) (map[string]Info, error) {
	rows, err := s.stmtListCorpora.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	corpora := make(map[string]Info)
	for rows.Next() {
		var info Info
		if err = rows.Scan(&info.Id, &info.Name, &info.Sequences); err != nil {
			return nil, err
		}
		corpora[info.Name] = info
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return corpora, nil
}

// corpusID resolves a corpus name to its row ID.
func (s *Store) corpusID(ctx context.Context, name string) (int, error) {
	var id int
	err := s.stmtGetCorpus.QueryRowContext(ctx, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCorpus, name)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AddSequences merges the given sequences into the named corpus, creating
// the corpus if it does not exist. Repeated sequences accumulate frequency.
// The entire operation is transactional.
func (s *Store) AddSequences(ctx context.Context, name string, seqs []Sequence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var corpusID int
	if err = tx.StmtContext(ctx, s.stmtInsertCorpus).QueryRowContext(ctx, name).Scan(&corpusID); err != nil {
		return fmt.Errorf("failed to get/insert corpus %q: %w", name, err)
	}

	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	stmtUpsertSeq := tx.StmtContext(ctx, s.stmtUpsertSeq)

	tokenIDs := make(map[string]int)
	var keyBuf []byte

	for _, seq := range seqs {
		if len(seq.Tokens) == 0 {
			continue
		}
		weight := seq.Weight
		if weight < 1 {
			weight = 1
		}

		keyBuf = keyBuf[:0]
		for i, tok := range seq.Tokens {
			id, ok := tokenIDs[tok]
			if !ok {
				if err = stmtInsertVocab.QueryRowContext(ctx, tok).Scan(&id); err != nil {
					return fmt.Errorf("failed to get/insert token %q: %w", tok, err)
				}
				tokenIDs[tok] = id
			}
			if i > 0 {
				keyBuf = append(keyBuf, ' ')
			}
			keyBuf = strconv.AppendInt(keyBuf, int64(id), 10)
		}

		if _, err = stmtUpsertSeq.ExecContext(ctx, corpusID, string(keyBuf), weight); err != nil {
			return fmt.Errorf("failed to upsert sequence: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "Sequences added to corpus",
		slog.String("corpus_name", name),
		slog.Int("corpus_id", corpusID),
		slog.Int("sequences_merged", len(seqs)),
	)

	return tx.Commit()
}

// LoadSequences retrieves all sequences of the named corpus with their
// accumulated frequencies.
func (s *Store) LoadSequences(ctx context.Context, name string) ([]Sequence, error) {
	corpusID, err := s.corpusID(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.stmtLoadSequences.QueryContext(ctx, corpusID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	tokenText := make(map[int]string)
	var seqs []Sequence

	for rows.Next() {
		var ids string
		var freq int
		if err = rows.Scan(&ids, &freq); err != nil {
			return nil, err
		}

		parts := strings.Split(ids, " ")
		tokens := make([]string, 0, len(parts))
		for _, idStr := range parts {
			id, err := strconv.Atoi(idStr)
			if err != nil {
				return nil, fmt.Errorf("corrupt token id %q in corpus %q: %w", idStr, name, err)
			}
			text, ok := tokenText[id]
			if !ok {
				if err = s.stmtGetTokenText.QueryRowContext(ctx, id).Scan(&text); err != nil {
					return nil, fmt.Errorf("failed to resolve token id %d: %w", id, err)
				}
				tokenText[id] = text
			}
			tokens = append(tokens, text)
		}
		seqs = append(seqs, Sequence{Tokens: tokens, Weight: freq})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seqs, nil
}

// Delete removes the named corpus and all of its sequences. Vocabulary
// entries are shared between corpora and are left in place.
func (s *Store) Delete(ctx context.Context, name string) error {
	corpusID, err := s.corpusID(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_sequences WHERE corpus_id = ?", corpusID); err != nil {
		return fmt.Errorf("failed to remove sequences for corpus %d: %w", corpusID, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_corpora WHERE corpus_id = ?", corpusID); err != nil {
		return fmt.Errorf("failed to remove corpus %d: %w", corpusID, err)
	}

	s.logger.InfoContext(ctx, "Corpus removed",
		slog.String("corpus_name", name),
		slog.Int("corpus_id", corpusID),
	)

	return tx.Commit()
}
