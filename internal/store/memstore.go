package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemStore — хранилище документов в памяти. Используется в тестах и при
// локальном запуске без базы данных. Реализует тот же контракт, что и
// PostgresStore, включая атомарность батчей.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any // путь -> id -> данные
}

// NewMemStore создает новое хранилище в памяти
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]map[string]map[string]any),
	}
}

// Get возвращает документ по пути и идентификатору
func (m *MemStore) Get(_ context.Context, path, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := coll[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &Document{Path: path, ID: id, Data: deepCopy(data)}, nil
}

// Query возвращает документы коллекции, удовлетворяющие предикатам
func (m *MemStore) Query(_ context.Context, path string, preds []Predicate, order *OrderBy) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Document
	for id, data := range m.docs[path] {
		if matchAll(data, preds) {
			result = append(result, Document{Path: path, ID: id, Data: deepCopy(data)})
		}
	}

	sortDocs(result, order)
	return result, nil
}

// QueryGroup возвращает документы всех коллекций с данным именем группы
func (m *MemStore) QueryGroup(_ context.Context, group string, preds []Predicate) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Document
	for path, coll := range m.docs {
		if !inGroup(path, group) {
			continue
		}
		for id, data := range coll {
			if matchAll(data, preds) {
				result = append(result, Document{Path: path, ID: id, Data: deepCopy(data)})
			}
		}
	}

	return result, nil
}

// Set создает или полностью перезаписывает документ
func (m *MemStore) Set(_ context.Context, path, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setLocked(path, id, data)
	return nil
}

// Update обновляет отдельные поля существующего документа
func (m *MemStore) Update(_ context.Context, path, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.updateLocked(path, id, fields)
}

// UpdateIf обновляет поля документа, только если выполняется условие.
// Возвращает ErrConflict, если документ существует, но условие не выполнено.
func (m *MemStore) UpdateIf(_ context.Context, path, id string, cond Predicate, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.docs[path][id]
	if !ok {
		return ErrNotFound
	}
	if !match(data, cond) {
		return ErrConflict
	}

	return m.updateLocked(path, id, fields)
}

// Delete удаляет документ; удаление отсутствующего документа не является ошибкой
func (m *MemStore) Delete(_ context.Context, path, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs[path], id)
	return nil
}

// Batch создает новый батч операций записи
func (m *MemStore) Batch() Batch {
	return &memBatch{store: m}
}

func (m *MemStore) setLocked(path, id string, data map[string]any) {
	coll, ok := m.docs[path]
	if !ok {
		coll = make(map[string]map[string]any)
		m.docs[path] = coll
	}
	coll[id] = deepCopy(data)
}

func (m *MemStore) updateLocked(path, id string, fields map[string]any) error {
	data, ok := m.docs[path][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		data[k] = deepCopyValue(v)
	}
	return nil
}

type memOp struct {
	kind   string // set, update, updateIf, increment, delete
	path   string
	id     string
	data   map[string]any
	cond   Predicate
	field  string
	delta  int64
}

type memBatch struct {
	store *MemStore
	ops   []memOp
}

func (b *memBatch) Set(path, id string, data map[string]any) {
	b.ops = append(b.ops, memOp{kind: "set", path: path, id: id, data: deepCopy(data)})
}

func (b *memBatch) Update(path, id string, fields map[string]any) {
	b.ops = append(b.ops, memOp{kind: "update", path: path, id: id, data: deepCopy(fields)})
}

func (b *memBatch) UpdateIf(path, id string, cond Predicate, fields map[string]any) {
	b.ops = append(b.ops, memOp{kind: "updateIf", path: path, id: id, cond: cond, data: deepCopy(fields)})
}

func (b *memBatch) Increment(path, id, field string, delta int64) {
	b.ops = append(b.ops, memOp{kind: "increment", path: path, id: id, field: field, delta: delta})
}

func (b *memBatch) Delete(path, id string) {
	b.ops = append(b.ops, memOp{kind: "delete", path: path, id: id})
}

// Commit применяет все операции батча атомарно: сначала проверяются все
// условия, и только затем выполняются записи.
func (b *memBatch) Commit(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	// Фаза проверки
	for _, op := range b.ops {
		switch op.kind {
		case "update", "increment":
			if _, ok := b.store.docs[op.path][op.id]; !ok {
				return fmt.Errorf("батч: %s/%s: %w", op.path, op.id, ErrNotFound)
			}
		case "updateIf":
			data, ok := b.store.docs[op.path][op.id]
			if !ok {
				return fmt.Errorf("батч: %s/%s: %w", op.path, op.id, ErrNotFound)
			}
			if !match(data, op.cond) {
				return fmt.Errorf("батч: %s/%s: %w", op.path, op.id, ErrConflict)
			}
		}
	}

	// Фаза применения
	for _, op := range b.ops {
		switch op.kind {
		case "set":
			b.store.setLocked(op.path, op.id, op.data)
		case "update", "updateIf":
			_ = b.store.updateLocked(op.path, op.id, op.data)
		case "increment":
			data := b.store.docs[op.path][op.id]
			data[op.field] = toInt64(data[op.field]) + op.delta
		case "delete":
			delete(b.store.docs[op.path], op.id)
		}
	}

	return nil
}

// inGroup проверяет, принадлежит ли путь коллекции данной группе
func inGroup(path, group string) bool {
	return path == group || strings.HasSuffix(path, "/"+group)
}

func matchAll(data map[string]any, preds []Predicate) bool {
	for _, p := range preds {
		if !match(data, p) {
			return false
		}
	}
	return true
}

func match(data map[string]any, p Predicate) bool {
	eq := equalValues(data[p.Field], p.Value)
	if p.Op == "!=" {
		return !eq
	}
	return eq
}

// equalValues сравнивает значения полей, приводя числа к общему типу
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt64(v any) int64 {
	if f, ok := toFloat(v); ok {
		return int64(f)
	}
	return 0
}

func sortDocs(docs []Document, order *OrderBy) {
	if order == nil {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		less := lessValues(docs[i].Data[order.Field], docs[j].Data[order.Field])
		if order.Desc {
			return lessValues(docs[j].Data[order.Field], docs[i].Data[order.Field])
		}
		return less
	})
}

func lessValues(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af < bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as < bs
}

func deepCopy(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
