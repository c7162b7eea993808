package persist

import (
	"context"
	"encoding/json"
	"fmt"
)

// JournalEntry is one write-ahead record of a Tier-2 persistent replication
// write, appended from the Replicator's dirty persistent entries ahead of
// each periodic save sweep so they can be replayed on restart.
type JournalEntry struct {
	EntityID   string
	Property   string
	Value      any
	ServerTick uint64
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append atomically writes a batch of journal entries in a single
// transaction (spec.md §5's single-writer semaphore invariant extends to
// this journal: callers serialize through the same write path as the save
// store).
func (r *JournalRepo) Append(ctx context.Context, entries []JournalEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		value, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("journal marshal value: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO replication_journal (entity_id, property, value, server_tick)
			 VALUES ($1, $2, $3, $4)`,
			e.EntityID, e.Property, value, e.ServerTick,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Unprocessed returns journal entries not yet marked processed, oldest
// first, for crash-recovery replay into the Replicator on startup.
func (r *JournalRepo) Unprocessed(ctx context.Context) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_id, property, value, server_tick FROM replication_journal
		 WHERE processed = FALSE ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var raw []byte
		if err := rows.Scan(&e.EntityID, &e.Property, &raw, &e.ServerTick); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Value); err != nil {
			return nil, fmt.Errorf("journal unmarshal value: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkProcessed marks all currently unprocessed journal entries as
// processed, called once the startup replay has applied their values to
// the Replicator's persistent tier.
func (r *JournalRepo) MarkProcessed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE replication_journal SET processed = TRUE WHERE processed = FALSE`,
	)
	return err
}
