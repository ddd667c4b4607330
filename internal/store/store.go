package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound возвращается, когда документ отсутствует
	ErrNotFound = errors.New("документ не найден")
	// ErrConflict возвращается, когда условие условного обновления не выполнено
	ErrConflict = errors.New("условие обновления не выполнено")
)

// Document представляет документ в хранилище
type Document struct {
	Path string
	ID   string
	Data map[string]any
}

// Predicate представляет условие фильтрации по полю документа.
// Поддерживаются только операции "==" и "!=".
type Predicate struct {
	Field string
	Op    string
	Value any
}

// Eq создает предикат равенства
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: "==", Value: value}
}

// Neq создает предикат неравенства
func Neq(field string, value any) Predicate {
	return Predicate{Field: field, Op: "!=", Value: value}
}

// OrderBy задает сортировку результатов запроса
type OrderBy struct {
	Field string
	Desc  bool
}

// Batch накапливает операции записи, применяемые атомарно одним Commit.
// Update, UpdateIf и Increment требуют существования документа; если хотя бы
// одна операция не может быть применена, не применяется ни одна.
type Batch interface {
	Set(path, id string, data map[string]any)
	Update(path, id string, fields map[string]any)
	UpdateIf(path, id string, cond Predicate, fields map[string]any)
	Increment(path, id, field string, delta int64)
	Delete(path, id string)
	Commit(ctx context.Context) error
}

// Store — фасад над документной базой данных. Пути коллекций имеют вид
// "items" или "users/{id}/sent_offers"; последний сегмент пути является
// именем группы коллекций для QueryGroup.
type Store interface {
	Get(ctx context.Context, path, id string) (*Document, error)
	Query(ctx context.Context, path string, preds []Predicate, order *OrderBy) ([]Document, error)
	QueryGroup(ctx context.Context, group string, preds []Predicate) ([]Document, error)
	Set(ctx context.Context, path, id string, data map[string]any) error
	Update(ctx context.Context, path, id string, fields map[string]any) error
	UpdateIf(ctx context.Context, path, id string, cond Predicate, fields map[string]any) error
	Delete(ctx context.Context, path, id string) error
	Batch() Batch
}
