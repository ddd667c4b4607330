package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore — реализация Store поверх PostgreSQL. Документы хранятся
// в одной таблице с JSONB-полем; батч отображается на транзакцию.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создает новый экземпляр PostgresStore
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema создает таблицу документов, если она отсутствует
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT NOT NULL,
			id TEXT NOT NULL,
			collection_group TEXT NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (path, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы документов: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_documents_group ON documents (collection_group)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания индекса группы коллекций: %w", err)
	}

	return nil
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Get возвращает документ по пути и идентификатору
func (s *PostgresStore) Get(ctx context.Context, path, id string) (*Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM documents WHERE path = $1 AND id = $2
	`, path, id).Scan(&raw)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения документа: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("ошибка разбора документа: %w", err)
	}

	return &Document{Path: path, ID: id, Data: data}, nil
}

// Query возвращает документы коллекции, удовлетворяющие предикатам
func (s *PostgresStore) Query(ctx context.Context, path string, preds []Predicate, order *OrderBy) ([]Document, error) {
	sql := "SELECT path, id, data FROM documents WHERE path = $1"
	args := []any{path}

	where, whereArgs, err := predicateClauses(preds, len(args))
	if err != nil {
		return nil, err
	}
	sql += where
	args = append(args, whereArgs...)

	if order != nil {
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		sql += fmt.Sprintf(" ORDER BY data -> '%s' %s", sanitizeField(order.Field), dir)
	}

	return s.queryDocs(ctx, sql, args)
}

// QueryGroup возвращает документы всех коллекций с данным именем группы
func (s *PostgresStore) QueryGroup(ctx context.Context, group string, preds []Predicate) ([]Document, error) {
	sql := "SELECT path, id, data FROM documents WHERE collection_group = $1"
	args := []any{group}

	where, whereArgs, err := predicateClauses(preds, len(args))
	if err != nil {
		return nil, err
	}
	sql += where
	args = append(args, whereArgs...)

	return s.queryDocs(ctx, sql, args)
}

func (s *PostgresStore) queryDocs(ctx context.Context, sql string, args []any) ([]Document, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса документов: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.Path, &doc.ID, &raw); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("ошибка разбора документа: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Set создает или полностью перезаписывает документ
func (s *PostgresStore) Set(ctx context.Context, path, id string, data map[string]any) error {
	return setDoc(ctx, s.pool, path, id, data)
}

// Update обновляет отдельные поля существующего документа
func (s *PostgresStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	return updateDoc(ctx, s.pool, path, id, fields)
}

// UpdateIf обновляет поля документа, только если выполняется условие
func (s *PostgresStore) UpdateIf(ctx context.Context, path, id string, cond Predicate, fields map[string]any) error {
	return updateDocIf(ctx, s.pool, path, id, cond, fields)
}

// Delete удаляет документ; удаление отсутствующего документа не является ошибкой
func (s *PostgresStore) Delete(ctx context.Context, path, id string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM documents WHERE path = $1 AND id = $2
	`, path, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления документа: %w", err)
	}
	return nil
}

// Batch создает новый батч операций записи
func (s *PostgresStore) Batch() Batch {
	return &pgBatch{store: s}
}

type pgBatch struct {
	store *PostgresStore
	ops   []func(ctx context.Context, tx rowQuerier) error
}

func (b *pgBatch) Set(path, id string, data map[string]any) {
	b.ops = append(b.ops, func(ctx context.Context, tx rowQuerier) error {
		return setDoc(ctx, tx, path, id, data)
	})
}

func (b *pgBatch) Update(path, id string, fields map[string]any) {
	b.ops = append(b.ops, func(ctx context.Context, tx rowQuerier) error {
		return updateDoc(ctx, tx, path, id, fields)
	})
}

func (b *pgBatch) UpdateIf(path, id string, cond Predicate, fields map[string]any) {
	b.ops = append(b.ops, func(ctx context.Context, tx rowQuerier) error {
		return updateDocIf(ctx, tx, path, id, cond, fields)
	})
}

func (b *pgBatch) Increment(path, id, field string, delta int64) {
	b.ops = append(b.ops, func(ctx context.Context, tx rowQuerier) error {
		f := sanitizeField(field)
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
			UPDATE documents
			SET data = jsonb_set(data, '{%s}', to_jsonb(COALESCE((data ->> '%s')::bigint, 0) + $3))
			WHERE path = $1 AND id = $2
		`, f, f), path, id, delta)
		if err != nil {
			return fmt.Errorf("ошибка инкремента поля: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (b *pgBatch) Delete(path, id string) {
	b.ops = append(b.ops, func(ctx context.Context, tx rowQuerier) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM documents WHERE path = $1 AND id = $2
		`, path, id)
		return err
	})
}

// Commit выполняет все операции батча в одной транзакции
func (b *pgBatch) Commit(ctx context.Context) error {
	tx, err := b.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, op := range b.ops {
		if err := op(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func setDoc(ctx context.Context, tx rowQuerier, path, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации документа: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (path, id, collection_group, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path, id) DO UPDATE SET data = EXCLUDED.data
	`, path, id, collectionGroup(path), raw)

	if err != nil {
		return fmt.Errorf("ошибка записи документа: %w", err)
	}
	return nil
}

func updateDoc(ctx context.Context, tx rowQuerier, path, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("ошибка сериализации полей: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE documents SET data = data || $3::jsonb WHERE path = $1 AND id = $2
	`, path, id, raw)

	if err != nil {
		return fmt.Errorf("ошибка обновления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func updateDocIf(ctx context.Context, tx rowQuerier, path, id string, cond Predicate, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("ошибка сериализации полей: %w", err)
	}

	condRaw, err := json.Marshal(cond.Value)
	if err != nil {
		return fmt.Errorf("ошибка сериализации условия: %w", err)
	}

	op := "IS NOT DISTINCT FROM"
	if cond.Op == "!=" {
		op = "IS DISTINCT FROM"
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE documents SET data = data || $3::jsonb
		WHERE path = $1 AND id = $2 AND data -> '%s' %s $4::jsonb
	`, sanitizeField(cond.Field), op), path, id, raw, condRaw)

	if err != nil {
		return fmt.Errorf("ошибка условного обновления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Различаем отсутствие документа и невыполненное условие
		var exists bool
		err = tx.QueryRow(ctx, `
			SELECT true FROM documents WHERE path = $1 AND id = $2
		`, path, id).Scan(&exists)
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("ошибка проверки документа: %w", err)
		}
		return ErrConflict
	}
	return nil
}

// predicateClauses строит SQL-условия для предикатов начиная с позиции argOffset+1
func predicateClauses(preds []Predicate, argOffset int) (string, []any, error) {
	var sb strings.Builder
	var args []any

	for _, p := range preds {
		raw, err := json.Marshal(p.Value)
		if err != nil {
			return "", nil, fmt.Errorf("ошибка сериализации предиката: %w", err)
		}

		op := "IS NOT DISTINCT FROM"
		if p.Op == "!=" {
			op = "IS DISTINCT FROM"
		}

		args = append(args, raw)
		sb.WriteString(fmt.Sprintf(" AND data -> '%s' %s $%d::jsonb",
			sanitizeField(p.Field), op, argOffset+len(args)))
	}

	return sb.String(), args, nil
}

// collectionGroup возвращает имя группы коллекций (последний сегмент пути)
func collectionGroup(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// sanitizeField защищает имя поля при подстановке в SQL; имена полей
// задаются только кодом, а не пользовательским вводом
func sanitizeField(field string) string {
	return strings.NewReplacer("'", "", "{", "", "}", "", ",", "").Replace(field)
}
