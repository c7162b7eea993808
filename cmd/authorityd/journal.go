package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/openfrontier/authority/internal/persist"
	"github.com/openfrontier/authority/internal/replication"
	"github.com/openfrontier/authority/internal/server"
)

// replayJournal restores any Tier-2 persistent writes that were journaled
// but never confirmed applied before the last crash (spec §4.5/§7's
// persistence-failure recovery).
func replayJournal(c *server.Context, repo *persist.JournalRepo, log *zap.Logger) error {
	entries, err := repo.Unprocessed(context.Background())
	if err != nil {
		return err
	}
	for _, e := range entries {
		c.Replicate.UpdatePersistent(e.EntityID, replication.Property(e.Property), e.Value, "server", int64(e.ServerTick), replication.PolicyServerWins)
	}
	if len(entries) > 0 {
		if err := repo.MarkProcessed(context.Background()); err != nil {
			return err
		}
		log.Warn("replayed replication journal entries", zap.Int("count", len(entries)))
	}
	return nil
}

// journalDirtyPersistent appends the replicator's current dirty persistent
// entries to the journal ahead of the save sweep, then marks them saved in
// the replicator so the next sweep only journals what changed since.
func journalDirtyPersistent(c *server.Context, repo *persist.JournalRepo) error {
	dirty := c.Replicate.GetDirtyPersistent()
	if len(dirty) == 0 {
		return nil
	}

	var entries []persist.JournalEntry
	for entity, props := range dirty {
		for prop, val := range props {
			entries = append(entries, persist.JournalEntry{EntityID: entity, Property: string(prop), Value: val})
		}
	}
	if err := repo.Append(context.Background(), entries); err != nil {
		return err
	}

	for entity, props := range dirty {
		names := make([]replication.Property, 0, len(props))
		for prop := range props {
			names = append(names, prop)
		}
		c.Replicate.MarkPersistentSaved(entity, names)
	}
	return nil
}
