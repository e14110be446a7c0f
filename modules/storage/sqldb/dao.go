package sqldb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vk/tracegrid/modules/core"
	"github.com/vk/tracegrid/modules/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DAO implements storage.DAO on a gorm connection. It is published during
// Prepare and becomes usable once the provider has opened the database in
// Start; before that every call returns storage.ErrNotStarted.
type DAO struct {
	db atomic.Pointer[gorm.DB]
}

func (d *DAO) conn(ctx context.Context) (*gorm.DB, error) {
	db := d.db.Load()
	if db == nil {
		return nil, storage.ErrNotStarted
	}
	return db.WithContext(ctx), nil
}

// WriteSpans upserts spans in one statement. Within a batch the last span
// with a given trace, id and shared flag wins.
func (d *DAO) WriteSpans(ctx context.Context, spans []core.Span) error {
	if len(spans) == 0 {
		return nil
	}
	db, err := d.conn(ctx)
	if err != nil {
		return err
	}
	type key struct {
		trace, span string
		shared      bool
	}
	arrived := time.Now()
	index := make(map[key]int, len(spans))
	records := make([]spanRecord, 0, len(spans))
	for _, s := range spans {
		r, err := toRecord(s, arrived)
		if err != nil {
			return err
		}
		k := key{r.TraceID, r.SpanID, r.Shared}
		if i, seen := index[k]; seen {
			records[i] = r
			continue
		}
		index[k] = len(records)
		records = append(records, r)
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&records).Error
}

func (d *DAO) Trace(ctx context.Context, traceID string) ([]core.Span, error) {
	db, err := d.conn(ctx)
	if err != nil {
		return nil, err
	}
	var records []spanRecord
	if err := db.Where("trace_id = ?", traceID).Order("timestamp, span_id").Find(&records).Error; err != nil {
		return nil, err
	}
	spans := make([]core.Span, 0, len(records))
	for _, r := range records {
		s, err := r.span()
		if err != nil {
			return nil, err
		}
		spans = append(spans, s)
	}
	return spans, nil
}

func (d *DAO) ServiceNames(ctx context.Context) ([]string, error) {
	db, err := d.conn(ctx)
	if err != nil {
		return nil, err
	}
	names := []string{}
	err = db.Model(&spanRecord{}).
		Where("service_name <> ?", "").
		Distinct().Order("service_name").
		Pluck("service_name", &names).Error
	return names, err
}

func (d *DAO) SpanNames(ctx context.Context, serviceName string) ([]string, error) {
	db, err := d.conn(ctx)
	if err != nil {
		return nil, err
	}
	names := []string{}
	err = db.Model(&spanRecord{}).
		Where("service_name = ? AND name <> ?", serviceName, "").
		Distinct().Order("name").
		Pluck("name", &names).Error
	return names, err
}

func (d *DAO) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := d.conn(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("retain_from < ?", cutoff.UnixMicro()).Delete(&spanRecord{})
	return res.RowsAffected, res.Error
}

var _ storage.DAO = (*DAO)(nil)
