package localcache

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"
)

// MigrationStatus is the lifecycle of one item's migration.  It moves
// pending -> created or pending -> failed; created is terminal and a created
// record is never demoted, which is what makes re-runs safe.
type MigrationStatus string

const (
	StatusPending MigrationStatus = "pending"
	StatusCreated MigrationStatus = "created"
	StatusFailed  MigrationStatus = "failed"
)

// MigrationRecord is one item's entry in the ledger.
type MigrationRecord struct {
	Status    MigrationStatus `yaml:"status"`
	NotionID  string          `yaml:"notionId,omitempty"`
	NotionURL string          `yaml:"notionUrl,omitempty"`
	Error     string          `yaml:"error,omitempty"`
	Attempts  int             `yaml:"attempts"`
	UpdatedAt time.Time       `yaml:"updatedAt"`
}

// RecordSet is the migration ledger for one workspace, persisted to
// migration-state.yaml after every transition.  A crash mid-run loses at most
// the item that was in flight, and that one is retried next run.
type RecordSet struct {
	path    string
	records map[string]MigrationRecord
}

// LoadRecords reads the workspace's ledger.  A store that has never been
// migrated yields an empty set.
func LoadRecords(store *Store) (*RecordSet, error) {
	abs := path.Join(store.Dir, "migration-state.yaml")
	set := &RecordSet{
		path:    abs,
		records: map[string]MigrationRecord{},
	}

	source, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localcache: couldn't read ledger %s: %w", abs, err)
	}

	if err := yaml.Unmarshal(source, &set.records); err != nil {
		return nil, fmt.Errorf("localcache: couldn't parse ledger %s: %w", abs, err)
	}
	return set, nil
}

// Get returns the record for an item, if any.
func (rs *RecordSet) Get(itemID string) (MigrationRecord, bool) {
	record, ok := rs.records[itemID]
	return record, ok
}

// IsCreated reports whether an item has already landed in the destination.
func (rs *RecordSet) IsCreated(itemID string) bool {
	record, ok := rs.records[itemID]
	return ok && record.Status == StatusCreated
}

// CreatedPages returns itemID -> record for everything already created.  The
// migrator rebuilds its link-remapping table from this at startup.
func (rs *RecordSet) CreatedPages() map[string]MigrationRecord {
	out := map[string]MigrationRecord{}
	for id, record := range rs.records {
		if record.Status == StatusCreated {
			out[id] = record
		}
	}
	return out
}

// MarkPending records that we are about to attempt an item.  It refuses to
// touch a created record.
func (rs *RecordSet) MarkPending(itemID string) error {
	record := rs.records[itemID]
	if record.Status == StatusCreated {
		return fmt.Errorf("localcache: item %s is already created, refusing to mark pending", itemID)
	}
	record.Status = StatusPending
	record.Error = ""
	record.Attempts++
	record.UpdatedAt = time.Now().UTC()
	rs.records[itemID] = record
	return rs.persist()
}

// MarkCreated records a successful migration.
func (rs *RecordSet) MarkCreated(itemID string, notionID string, notionURL string) error {
	record := rs.records[itemID]
	record.Status = StatusCreated
	record.NotionID = notionID
	record.NotionURL = notionURL
	record.Error = ""
	record.UpdatedAt = time.Now().UTC()
	rs.records[itemID] = record
	return rs.persist()
}

// MarkFailed records a failed attempt.  Created records are left alone: a
// page that exists in the destination exists, whatever happened afterwards.
func (rs *RecordSet) MarkFailed(itemID string, cause error) error {
	record := rs.records[itemID]
	if record.Status == StatusCreated {
		return nil
	}
	record.Status = StatusFailed
	record.Error = cause.Error()
	record.UpdatedAt = time.Now().UTC()
	rs.records[itemID] = record
	return rs.persist()
}

// persist writes the whole ledger out via a temp file and rename, so a crash
// mid-write leaves the previous ledger intact rather than a truncated one.
func (rs *RecordSet) persist() error {
	contents, err := yaml.Marshal(rs.records)
	if err != nil {
		return fmt.Errorf("localcache: couldn't marshal ledger: %w", err)
	}

	tmp := rs.path + ".tmp"
	if err := os.WriteFile(tmp, contents, 0640); err != nil {
		return fmt.Errorf("localcache: couldn't write ledger %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, rs.path); err != nil {
		return fmt.Errorf("localcache: couldn't move ledger into place at %s: %w", rs.path, err)
	}
	return nil
}
