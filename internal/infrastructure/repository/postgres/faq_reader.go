package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// FAQColumns maps the logical FAQ fields to the source table. Link, CreatedAt,
// UpdatedAt and IsActive are optional; empty means the column does not exist.
type FAQColumns struct {
	ID        string
	SegmentID string
	Question  string
	Response  string
	Link      string
	CreatedAt string
	UpdatedAt string
	IsActive  string
}

type FAQReaderConfig struct {
	Table      string
	Columns    FAQColumns
	ActiveTrue string
}

// FAQReader streams FAQ rows from an existing table in id order.
type FAQReader struct {
	db  *sql.DB
	cfg FAQReaderConfig
}

func NewFAQReader(db *sql.DB, cfg FAQReaderConfig) (*FAQReader, error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "new faq reader", fmt.Errorf("table is required"))
	}
	c := cfg.Columns
	for name, col := range map[string]string{"id": c.ID, "segment_id": c.SegmentID, "question": c.Question, "response": c.Response} {
		if strings.TrimSpace(col) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "new faq reader", fmt.Errorf("column %s is required", name))
		}
	}
	if cfg.ActiveTrue == "" {
		cfg.ActiveTrue = "TRUE"
	}
	return &FAQReader{db: db, cfg: cfg}, nil
}

func (r *FAQReader) StreamRecords(
	ctx context.Context,
	since *time.Time,
	batchSize int,
	fn func([]domain.FAQRecord) error,
) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	query, args := r.buildQuery(since)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query faq rows: %w", err)
	}
	defer rows.Close()

	batch := make([]domain.FAQRecord, 0, batchSize)
	for rows.Next() {
		rec, err := scanFAQRecord(rows)
		if err != nil {
			return err
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]domain.FAQRecord, 0, batchSize)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate faq rows: %w", err)
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func (r *FAQReader) buildQuery(since *time.Time) (string, []any) {
	c := r.cfg.Columns

	var (
		where []string
		args  []any
	)
	if c.IsActive != "" {
		args = append(args, r.cfg.ActiveTrue)
		where = append(where, fmt.Sprintf("%s = $%d", ident(c.IsActive), len(args)))
	}
	if since != nil && c.UpdatedAt != "" {
		args = append(args, since.UTC())
		where = append(where, fmt.Sprintf("%s >= $%d", ident(c.UpdatedAt), len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, %s, %s, %s, %s, %s FROM %s",
		ident(c.ID), ident(c.SegmentID), ident(c.Question), ident(c.Response),
		optionalIdent(c.Link), optionalIdent(c.CreatedAt), tableIdent(r.cfg.Table))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s ASC", ident(c.ID))
	return b.String(), args
}

func scanFAQRecord(rows *sql.Rows) (domain.FAQRecord, error) {
	var (
		rec       domain.FAQRecord
		question  sql.NullString
		response  sql.NullString
		link      sql.NullString
		createdAt sql.NullTime
	)
	if err := rows.Scan(&rec.FAQID, &rec.SegmentID, &question, &response, &link, &createdAt); err != nil {
		return domain.FAQRecord{}, fmt.Errorf("scan faq row: %w", err)
	}
	rec.Question = strings.TrimSpace(question.String)
	rec.Response = strings.TrimSpace(response.String)
	if link.Valid && strings.TrimSpace(link.String) != "" {
		v := strings.TrimSpace(link.String)
		rec.Link = &v
	}
	if createdAt.Valid {
		t := createdAt.Time
		rec.CreatedAt = &t
	}
	return rec, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func optionalIdent(name string) string {
	if strings.TrimSpace(name) == "" {
		return "NULL"
	}
	return ident(name)
}

// tableIdent quotes "schema.table", defaulting the schema to public.
func tableIdent(table string) string {
	schema, name, ok := strings.Cut(table, ".")
	if !ok {
		schema, name = "public", table
	}
	return pgx.Identifier{schema, name}.Sanitize()
}
