package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/lib/pq"
)

// Postgres stores documents in a single versioned table. Reads inside a
// transaction take row locks; writes check the version they read.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, collection, id string, dest any) error {
	var body []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return classify(err)
	}
	return json.Unmarshal(body, dest)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, version, updated_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = EXCLUDED.body, version = documents.version + 1, updated_at = EXCLUDED.updated_at`,
		collection, id, body, time.Now())
	return classify(err)
}

func (p *Postgres) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer sqlTx.Rollback()

	tx := &pgTx{
		ctx:    ctx,
		tx:     sqlTx,
		reads:  make(map[docKey]int64),
		writes: make(map[docKey][]byte),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.flush(); err != nil {
		return err
	}
	return classify(sqlTx.Commit())
}

type pgTx struct {
	ctx    context.Context
	tx     *sql.Tx
	reads  map[docKey]int64
	writes map[docKey][]byte
}

func (t *pgTx) Get(ctx context.Context, collection, id string, dest any) error {
	k := docKey{collection, id}
	if body, ok := t.writes[k]; ok {
		return json.Unmarshal(body, dest)
	}

	var (
		body    []byte
		version int64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT body, version FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id).Scan(&body, &version)
	if err == sql.ErrNoRows {
		t.reads[k] = 0
		return ErrNotFound
	}
	if err != nil {
		return classify(err)
	}

	t.reads[k] = version
	return json.Unmarshal(body, dest)
}

func (t *pgTx) Set(collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	t.writes[docKey{collection, id}] = body
	return nil
}

// flush applies buffered writes in key order so concurrent transactions
// touching the same documents lock them in the same order.
func (t *pgTx) flush() error {
	keys := make([]docKey, 0, len(t.writes))
	for k := range t.writes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].collection != keys[j].collection {
			return keys[i].collection < keys[j].collection
		}
		return keys[i].id < keys[j].id
	})

	now := time.Now()
	for _, k := range keys {
		var (
			result sql.Result
			err    error
		)
		if version := t.reads[k]; version > 0 {
			result, err = t.tx.ExecContext(t.ctx, `
				UPDATE documents SET body = $1, version = version + 1, updated_at = $2
				WHERE collection = $3 AND id = $4 AND version = $5`,
				t.writes[k], now, k.collection, k.id, version)
		} else {
			result, err = t.tx.ExecContext(t.ctx, `
				INSERT INTO documents (collection, id, body, version, updated_at)
				VALUES ($1, $2, $3, 1, $4)
				ON CONFLICT (collection, id) DO NOTHING`,
				k.collection, k.id, t.writes[k], now)
		}
		if err != nil {
			return classify(err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return classify(err)
		}
		if rows == 0 {
			return fmt.Errorf("write %s/%s: %w", k.collection, k.id, ErrConflict)
		}
	}
	return nil
}

// classify maps driver errors onto the store's transient error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected", "unique_violation":
			return fmt.Errorf("%s: %w", pqErr.Message, ErrConflict)
		case "admin_shutdown", "crash_shutdown", "cannot_connect_now", "too_many_connections":
			return fmt.Errorf("%s: %w", pqErr.Message, ErrUnavailable)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	return err
}
