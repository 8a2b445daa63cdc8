package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/matheusM9/distribuidores-render/models"
)

// Postgres is a RowAPI backed by a single table keyed by row position.
// The header row is synthetic: the column set is fixed by the schema, so
// only data rows (positions >= 2) are stored.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection. Call EnsureSchema before use.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the row table if it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS distributor_rows (
			position    INTEGER PRIMARY KEY,
			distributor TEXT NOT NULL DEFAULT '',
			contact     TEXT NOT NULL DEFAULT '',
			email       TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL DEFAULT '',
			city        TEXT NOT NULL DEFAULT '',
			latitude    TEXT NOT NULL DEFAULT '',
			longitude   TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("creating distributor_rows table: %w", err)
	}
	return nil
}

// Ping verifies the connection, used by the health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) LoadAllRows(ctx context.Context) ([][]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT distributor, contact, email, state, city, latitude, longitude
		FROM distributor_rows
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	all := [][]string{append([]string(nil), models.Columns...)}
	for rows.Next() {
		r := make([]string, len(models.Columns))
		if err := rows.Scan(&r[0], &r[1], &r[2], &r[3], &r[4], &r[5], &r[6]); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	if len(all) == 1 {
		// No data rows stored yet; report an empty sheet so the record
		// layer performs its lazy header initialization.
		return nil, nil
	}
	return all, nil
}

func (p *Postgres) AppendRow(ctx context.Context, values []string) error {
	v := padRow(values)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO distributor_rows
			(position, distributor, contact, email, state, city, latitude, longitude)
		VALUES ((SELECT COALESCE(MAX(position), 1) + 1 FROM distributor_rows),
			$1, $2, $3, $4, $5, $6, $7)`,
		v[0], v[1], v[2], v[3], v[4], v[5], v[6])
	if err != nil {
		return fmt.Errorf("appending row: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateRow(ctx context.Context, index int, values []string) error {
	if index == 1 {
		// Header is synthetic here, nothing to overwrite.
		return nil
	}
	v := padRow(values)
	res, err := p.db.ExecContext(ctx, `
		UPDATE distributor_rows
		SET distributor = $2, contact = $3, email = $4, state = $5,
		    city = $6, latitude = $7, longitude = $8
		WHERE position = $1`,
		index, v[0], v[1], v[2], v[3], v[4], v[5], v[6])
	if err != nil {
		return fmt.Errorf("updating row %d: %w", index, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("row index %d out of range", index)
	}
	return nil
}

func (p *Postgres) ReplaceAll(ctx context.Context, _ []string, rows [][]string) error {
	return p.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM distributor_rows`); err != nil {
			return fmt.Errorf("clearing rows: %w", err)
		}
		for i, row := range rows {
			v := padRow(row)
			_, err := tx.ExecContext(ctx, `
				INSERT INTO distributor_rows
					(position, distributor, contact, email, state, city, latitude, longitude)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				i+2, v[0], v[1], v[2], v[3], v[4], v[5], v[6])
			if err != nil {
				return fmt.Errorf("inserting row %d: %w", i+2, err)
			}
		}
		return nil
	})
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM distributor_rows`); err != nil {
		return fmt.Errorf("clearing rows: %w", err)
	}
	return nil
}

func (p *Postgres) withTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// padRow pads or trims a row to the fixed column count.
func padRow(values []string) []string {
	v := make([]string, len(models.Columns))
	copy(v, values)
	return v
}
