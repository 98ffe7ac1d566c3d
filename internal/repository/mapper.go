package repository

import (
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jnst/layered-crud-template/internal/db"
	"github.com/jnst/layered-crud-template/internal/model"
)

// AnalyticsDataRecord is the analytics_data row shared by both GPDBs.
type AnalyticsDataRecord struct {
	ID         int64          `db:"id"`
	EventType  string         `db:"event_type"`
	EventData  sql.NullString `db:"event_data"`
	OccurredAt time.Time      `db:"occurred_at"`
	CreatedAt  sql.NullTime   `db:"created_at"`
}

// SampleMapper converts between model.Sample and the samples row.
type SampleMapper struct{}

// ToRecord copies every field of the sample. Zero timestamps stay invalid so
// storage assigns them.
func (SampleMapper) ToRecord(s *model.Sample) db.Sample {
	return db.Sample{
		ID:        s.ID,
		Title:     s.Title,
		Content:   pgtype.Text{String: s.Content, Valid: s.Content != ""},
		CreatedAt: timestamptz(s.CreatedAt),
		UpdatedAt: timestamptz(s.UpdatedAt),
	}
}

// ToDomain copies every column of the row, including storage-assigned ones.
func (SampleMapper) ToDomain(rec db.Sample) *model.Sample {
	s := &model.Sample{
		ID:    rec.ID,
		Title: rec.Title,
	}

	if rec.Content.Valid {
		s.Content = rec.Content.String
	}

	if rec.CreatedAt.Valid {
		s.CreatedAt = rec.CreatedAt.Time
	}

	if rec.UpdatedAt.Valid {
		s.UpdatedAt = rec.UpdatedAt.Time
	}

	return s
}

// ToDomainList maps rows in order.
func (m SampleMapper) ToDomainList(recs []db.Sample) []*model.Sample {
	samples := make([]*model.Sample, len(recs))
	for i, rec := range recs {
		samples[i] = m.ToDomain(rec)
	}

	return samples
}

// AnalyticsDataMapper converts between model.AnalyticsData and AnalyticsDataRecord.
type AnalyticsDataMapper struct{}

// ToRecord copies every field of the analytics record.
func (AnalyticsDataMapper) ToRecord(a *model.AnalyticsData) AnalyticsDataRecord {
	return AnalyticsDataRecord{
		ID:         a.ID,
		EventType:  a.EventType,
		EventData:  sql.NullString{String: a.EventData, Valid: a.EventData != ""},
		OccurredAt: a.OccurredAt,
		CreatedAt:  sql.NullTime{Time: a.CreatedAt, Valid: !a.CreatedAt.IsZero()},
	}
}

// ToDomain copies every column of the row.
func (AnalyticsDataMapper) ToDomain(rec AnalyticsDataRecord) *model.AnalyticsData {
	a := &model.AnalyticsData{
		ID:         rec.ID,
		EventType:  rec.EventType,
		OccurredAt: rec.OccurredAt,
	}

	if rec.EventData.Valid {
		a.EventData = rec.EventData.String
	}

	if rec.CreatedAt.Valid {
		a.CreatedAt = rec.CreatedAt.Time
	}

	return a
}

// ToDomainList maps rows in order.
func (m AnalyticsDataMapper) ToDomainList(recs []AnalyticsDataRecord) []*model.AnalyticsData {
	data := make([]*model.AnalyticsData, len(recs))
	for i, rec := range recs {
		data[i] = m.ToDomain(rec)
	}

	return data
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
