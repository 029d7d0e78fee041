package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"medassist/pkg"
)

func TestRecordFetcher_Fetch(t *testing.T) {
	records := make([]pkg.MedicalRecord, 5)
	for i := range records {
		records[i] = pkg.MedicalRecord{ID: string(rune('a' + i))}
	}

	tests := []struct {
		name      string
		patientID string
		limit     int
		fetch     func(ctx context.Context, patientID string, limit int) ([]pkg.MedicalRecord, error)
		want      []pkg.MedicalRecord
		wantCalls int32
	}{
		{
			name:      "returns store rows",
			patientID: "p1",
			limit:     10,
			fetch: func(_ context.Context, _ string, limit int) ([]pkg.MedicalRecord, error) {
				return records, nil
			},
			want:      records,
			wantCalls: 1,
		},
		{
			name:      "truncates to limit",
			patientID: "p1",
			limit:     2,
			fetch: func(context.Context, string, int) ([]pkg.MedicalRecord, error) {
				return records, nil
			},
			want:      records[:2],
			wantCalls: 1,
		},
		{
			name:      "store error yields empty",
			patientID: "p1",
			limit:     10,
			fetch: func(context.Context, string, int) ([]pkg.MedicalRecord, error) {
				return nil, errors.New("relation \"medical_records\" does not exist")
			},
			want:      nil,
			wantCalls: 1,
		},
		{
			name:      "blank patient skips store",
			patientID: "",
			limit:     10,
			want:      nil,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockRecordStore{FetchFunc: tt.fetch}
			f := NewRecordFetcher(store, tt.limit, zerolog.Nop())
			assert.Equal(t, tt.want, f.Fetch(context.Background(), tt.patientID))
			assert.Equal(t, tt.wantCalls, store.FetchCallCount)
		})
	}
}

func TestRecordFetcher_DefaultLimitAndNilStore(t *testing.T) {
	store := &MockRecordStore{FetchFunc: func(_ context.Context, _ string, limit int) ([]pkg.MedicalRecord, error) {
		assert.Equal(t, DefaultRecordLimit, limit)
		return nil, nil
	}}
	NewRecordFetcher(store, -1, zerolog.Nop()).Fetch(context.Background(), "p1")

	assert.Empty(t, NewRecordFetcher(nil, 5, zerolog.Nop()).Fetch(context.Background(), "p1"))
	var nilFetcher *RecordFetcher
	assert.Empty(t, nilFetcher.Fetch(context.Background(), "p1"))
}
