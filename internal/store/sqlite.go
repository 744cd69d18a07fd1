package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/recommend"
)

const table = "recommendations"

var columns = []string{
	"id", "generated_at", "meal", "custom",
	"temp_avg", "temp_min", "temp_max", "precipitation",
	"weather_fetched_at", "stale", "foods",
}

// SQLiteStore persists recommendation history in a SQLite database.
type SQLiteStore struct {
	db         *sql.DB
	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

var _ recommend.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path. Retention limits
// behave like MemoryStore's; zero means unlimited.
func NewSQLiteStore(path string, maxHistory int, maxAge time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, maxHistory: maxHistory, maxAge: maxAge, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS recommendations (
        id TEXT PRIMARY KEY,
        generated_at INTEGER NOT NULL,
        meal TEXT NOT NULL,
        custom INTEGER NOT NULL,
        temp_avg REAL NOT NULL,
        temp_min REAL NOT NULL,
        temp_max REAL NOT NULL,
        precipitation REAL NOT NULL,
        weather_fetched_at INTEGER NOT NULL,
        stale INTEGER NOT NULL,
        foods TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_recommendations_generated_at ON recommendations(generated_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save inserts rec and prunes rows outside the retention limits.
func (s *SQLiteStore) Save(ctx context.Context, rec recommend.Recommendation) error {
	foods, err := json.Marshal(rec.Foods)
	if err != nil {
		return fmt.Errorf("failed to encode foods: %w", err)
	}

	query, args, err := sq.Insert(table).
		Columns(columns...).
		Values(
			rec.ID.String(), rec.GeneratedAt.UnixNano(), string(rec.Meal), rec.Custom,
			rec.Weather.TempAvg, rec.Weather.TempMin, rec.Weather.TempMax, rec.Weather.Precipitation,
			unixNano(rec.Weather.FetchedAt), rec.Weather.Stale, string(foods),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	if err := s.prune(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) prune(ctx context.Context, tx *sql.Tx) error {
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).UnixNano()
		query, args, err := sq.Delete(table).Where(sq.Lt{"generated_at": cutoff}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build age prune: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to prune by age: %w", err)
		}
	}

	if s.maxHistory > 0 {
		query, args, err := sq.Delete(table).
			Where(sq.Expr("id NOT IN (SELECT id FROM recommendations ORDER BY generated_at DESC LIMIT ?)", s.maxHistory)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build count prune: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to prune by count: %w", err)
		}
	}
	return nil
}

// Latest returns the most recent recommendation.
func (s *SQLiteStore) Latest(ctx context.Context) (recommend.Recommendation, error) {
	recs, err := s.query(ctx, sq.Select(columns...).From(table).OrderBy("generated_at DESC").Limit(1))
	if err != nil {
		return recommend.Recommendation{}, err
	}
	if len(recs) == 0 {
		return recommend.Recommendation{}, ErrNotFound
	}
	return recs[0], nil
}

// Range returns recommendations generated between from and to (inclusive), oldest first.
func (s *SQLiteStore) Range(ctx context.Context, from, to time.Time) ([]recommend.Recommendation, error) {
	recs, err := s.query(ctx, sq.Select(columns...).From(table).
		Where(sq.GtOrEq{"generated_at": from.UnixNano()}).
		Where(sq.LtOrEq{"generated_at": to.UnixNano()}).
		OrderBy("generated_at ASC"))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs, nil
}

func (s *SQLiteStore) query(ctx context.Context, b sq.SelectBuilder) ([]recommend.Recommendation, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []recommend.Recommendation
	for rows.Next() {
		var (
			rec                    recommend.Recommendation
			id, mealStr, foodsJSON string
			generatedAt, fetchedAt int64
		)
		err := rows.Scan(
			&id, &generatedAt, &mealStr, &rec.Custom,
			&rec.Weather.TempAvg, &rec.Weather.TempMin, &rec.Weather.TempMax, &rec.Weather.Precipitation,
			&fetchedAt, &rec.Weather.Stale, &foodsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}

		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(foodsJSON), &rec.Foods); err != nil {
			return nil, fmt.Errorf("failed to decode foods for %s: %w", id, err)
		}
		rec.GeneratedAt = time.Unix(0, generatedAt).UTC()
		rec.Weather.FetchedAt = fromUnixNano(fetchedAt)
		rec.Meal = meal.Category(mealStr)

		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return recs, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
