package core

import (
	"context"

	"github.com/rs/zerolog"

	"medassist/pkg"
)

// DefaultRecordLimit is how many records ground a single answer.
const DefaultRecordLimit = 20

// RecordStore is the read side of the record store.  *db.Repository
// implements it.
type RecordStore interface {
	FetchRecentRecords(ctx context.Context, patientID string, limit int) ([]pkg.MedicalRecord, error)
}

// RecordFetcher loads the newest records for a patient.  Store errors are
// logged and swallowed so the assistant can still answer general questions.
type RecordFetcher struct {
	store  RecordStore
	limit  int
	logger zerolog.Logger
}

// NewRecordFetcher constructs a fetcher.  A nil store behaves like an empty
// one; a non-positive limit falls back to DefaultRecordLimit.
func NewRecordFetcher(store RecordStore, limit int, logger zerolog.Logger) *RecordFetcher {
	if limit <= 0 {
		limit = DefaultRecordLimit
	}
	return &RecordFetcher{store: store, limit: limit, logger: logger}
}

// Fetch returns up to the configured number of records, newest first, or an
// empty slice on any error.
func (f *RecordFetcher) Fetch(ctx context.Context, patientID string) []pkg.MedicalRecord {
	if f == nil || f.store == nil || patientID == "" {
		return nil
	}
	records, err := f.store.FetchRecentRecords(ctx, patientID, f.limit)
	if err != nil {
		f.logger.Warn().Err(err).Str("patient_id", patientID).Msg("record fetch failed, answering without records")
		return nil
	}
	if len(records) > f.limit {
		records = records[:f.limit]
	}
	return records
}
