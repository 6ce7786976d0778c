package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcingbee/challan/internal/domain/audit"
)

func TestRecordManyWritesWholeBatch(t *testing.T) {
	repo := NewInMemoryAuditRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []*audit.Record{
		{
			ID:             "audit_01",
			RunID:          "run_01",
			VehicleID:      "KA01AB1234",
			DocumentNumber: "AKDCHYDNCH00000301",
			ParentSerial:   "AKDCHYDNCH00000301",
			PartIndex:      1,
			PartCount:      2,
			SequenceName:   "akdchydnch_seq",
			SequenceValue:  301,
			CreatedAt:      now,
		},
		{
			ID:             "audit_02",
			RunID:          "run_01",
			VehicleID:      "KA01AB1234",
			DocumentNumber: "AKDCHYDNCH00000301_02",
			ParentSerial:   "AKDCHYDNCH00000301",
			PartIndex:      2,
			PartCount:      2,
			SequenceName:   "akdchydnch_seq",
			SequenceValue:  301,
			CreatedAt:      now,
		},
	}

	require.NoError(t, repo.RecordMany(ctx, batch))
	require.NoError(t, repo.RecordMany(ctx, nil))

	records, err := repo.QueryByRun(ctx, "run_01")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AKDCHYDNCH00000301", records[0].DocumentNumber)
	assert.Equal(t, "AKDCHYDNCH00000301_02", records[1].DocumentNumber)

	// Both parts share one increment of the same counter.
	summary, err := repo.ExportSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 1, summary.TotalIncrements)
	assert.Equal(t, 1, summary.TotalVehicles)
}

func TestRecordManyDoesNotAliasCallerRecords(t *testing.T) {
	repo := NewInMemoryAuditRepository()
	ctx := context.Background()

	record := &audit.Record{
		ID:             "audit_03",
		RunID:          "run_02",
		VehicleID:      "TS09XY9999",
		DocumentNumber: "SBDCAH00000305",
		ParentSerial:   "SBDCAH00000305",
		PartIndex:      1,
		PartCount:      1,
		SequenceName:   "sbdcah_seq",
		SequenceValue:  305,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.RecordMany(ctx, []*audit.Record{record}))

	record.DocumentNumber = "mutated"

	records, err := repo.QueryByRun(ctx, "run_02")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SBDCAH00000305", records[0].DocumentNumber)
}
