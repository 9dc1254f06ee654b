package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"huddle/domain/event"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/database"
)

const JournalPrefix = "journal:chat:"

// JournalEntry is one recorded message lifecycle event.
type JournalEntry struct {
	ID    string          `json:"id"`
	Event event.Name      `json:"event"`
	At    time.Time       `json:"at"`
	Data  json.RawMessage `json:"data"`
}

// JournalRepository is an append-only audit trail of the chat in BadgerDB.
// It is written to, never replayed.
type JournalRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewJournalRepository(db *badger.DB, log *slog.Logger) *JournalRepository {
	return &JournalRepository{db: db, log: log}
}

// JournalKey is formatted as "journal:chat:{timestamp_padded}:{uuid}".
// The 19-digit padding keeps lexicographical and chronological order aligned,
// the uuid separates entries recorded at the same nanosecond.
func JournalKey(at time.Time, id string) string {
	return fmt.Sprintf("%s%019d:%s", JournalPrefix, at.UnixNano(), id)
}

func (j *JournalRepository) Record(ctx context.Context, e event.Event, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("journal payload of %s: %w", e.Name, err)
	}
	entry := JournalEntry{ID: uuid.NewString(), Event: e.Name, At: at.UTC(), Data: data}
	bytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(JournalKey(entry.At, entry.ID)), bytes)
	})
}

// List returns the most recent entries first. A limit of zero or less returns everything.
func (j *JournalRepository) List(limit int) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte(JournalPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts past the newest possible key
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) == limit {
				j.log.Debug(fmt.Sprintf("Maximum of %d entries reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var entry JournalEntry
				if err := json.Unmarshal(value, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return entries, err
}

// JournalMapper renders journal rows for the badger debug inspector.
func JournalMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	var entry JournalEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	row.Type = string(entry.Event)
	row.Detail = string(entry.Data)
	return row
}
