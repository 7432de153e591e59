package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/education"
)

const dbTimeout = 5 * time.Second

const selectColumns = `id::text, user_id, content_type, title, description, subject, grade_level,
	language, curriculum_standards, content_data, sharing_settings, created_at`

// PostgresStore is a PostgreSQL-backed Store over educational_content.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed content store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	saved, err := s.SaveTx(ctx, tx, rec)
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("commit content: %w", err)
	}
	return saved, nil
}

// SaveTx inserts rec inside tx.
func (s *PostgresStore) SaveTx(ctx context.Context, tx pgx.Tx, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}

	standards, err := json.Marshal(rec.Data.CurriculumStandards)
	if err != nil {
		return Record{}, fmt.Errorf("marshal curriculum standards: %w", err)
	}
	data, err := json.Marshal(rec.Data.ContentData)
	if err != nil {
		return Record{}, fmt.Errorf("marshal content data: %w", err)
	}
	sharing, err := json.Marshal(rec.Data.SharingSettings)
	if err != nil {
		return Record{}, fmt.Errorf("marshal sharing settings: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO educational_content
		   (id, user_id, content_type, title, description, subject, grade_level, language,
		    curriculum_standards, content_data, sharing_settings, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11::jsonb, $12)`,
		rec.ID,
		rec.UserID,
		string(rec.Data.ContentType),
		rec.Data.Title,
		rec.Description,
		rec.Data.Subject,
		rec.Data.GradeLevel,
		rec.Data.Language,
		string(standards),
		string(data),
		string(sharing),
		rec.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert content: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM educational_content WHERE id = $1::uuid`,
		id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM educational_content
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateSharing(ctx context.Context, id, userID string, sharing education.SharingSettings) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	data, err := json.Marshal(sharing)
	if err != nil {
		return Record{}, fmt.Errorf("encode sharing settings: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`UPDATE educational_content SET sharing_settings = $1::jsonb
		 WHERE id = $2::uuid AND user_id = $3
		 RETURNING `+selectColumns,
		data, id, userID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec                      Record
		contentType              string
		standards, data, sharing []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&contentType,
		&rec.Data.Title,
		&rec.Description,
		&rec.Data.Subject,
		&rec.Data.GradeLevel,
		&rec.Data.Language,
		&standards,
		&data,
		&sharing,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan content: %w", err)
	}

	rec.Data.ContentType = education.ContentType(contentType)
	if err := json.Unmarshal(standards, &rec.Data.CurriculumStandards); err != nil {
		return Record{}, fmt.Errorf("decode curriculum standards: %w", err)
	}
	if err := json.Unmarshal(sharing, &rec.Data.SharingSettings); err != nil {
		return Record{}, fmt.Errorf("decode sharing settings: %w", err)
	}
	c, err := education.DecodeContent(rec.Data.ContentType, data)
	if err != nil {
		return Record{}, err
	}
	rec.Data.ContentData = c
	return rec, nil
}

// PostgresRepository saves content and deducts credits in one transaction.
type PostgresRepository struct {
	*PostgresStore
	pool   *pgxpool.Pool
	ledger *credits.PostgresLedger
}

// NewPostgresRepository creates a repository sharing pool between the
// content store and the ledger.
func NewPostgresRepository(pool *pgxpool.Pool, ledger *credits.PostgresLedger) (*PostgresRepository, error) {
	store, err := NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	return &PostgresRepository{PostgresStore: store, pool: pool, ledger: ledger}, nil
}

func (r *PostgresRepository) SaveWithDeduction(ctx context.Context, rec Record, cost int, details credits.Details) (Record, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Record{}, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	saved, err := r.SaveTx(ctx, tx, rec)
	if err != nil {
		return Record{}, 0, err
	}
	details.ContentID = saved.ID
	remaining, err := r.ledger.DeductTx(ctx, tx, rec.UserID, cost, details)
	if err != nil {
		return Record{}, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, 0, fmt.Errorf("commit save and deduct: %w", err)
	}
	return saved, remaining, nil
}
