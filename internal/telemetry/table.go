package telemetry

import (
	"sort"
	"strconv"
	"sync"
)

type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
)

// Value is one table cell.
type Value struct {
	Kind   Kind
	Number float64
	Str    string
	Bool   bool
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', 6, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

type Table struct {
	mu     sync.RWMutex
	values map[string]Value
}

func NewTable() *Table {
	return &Table{values: make(map[string]Value)}
}

func (t *Table) put(key string, v Value) {
	t.mu.Lock()
	t.values[key] = v
	t.mu.Unlock()
}

func (t *Table) PutNumber(key string, v float64) { t.put(key, Value{Kind: KindNumber, Number: v}) }
func (t *Table) PutString(key, v string)         { t.put(key, Value{Kind: KindString, Str: v}) }
func (t *Table) PutBool(key string, v bool)      { t.put(key, Value{Kind: KindBool, Bool: v}) }

func (t *Table) Get(key string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok
}

func (t *Table) GetNumber(key string) float64 {
	v, _ := t.Get(key)
	return v.Number
}

func (t *Table) GetString(key string) string {
	v, _ := t.Get(key)
	return v.Str
}

func (t *Table) GetBool(key string) bool {
	v, _ := t.Get(key)
	return v.Bool
}

// Keys returns the table keys in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot copies the whole table.
func (t *Table) Snapshot() map[string]Value {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Value, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Entry is a string cell of a table used as an override channel.
type Entry struct {
	table *Table
	key   string
}

func (t *Table) Entry(key string) *Entry {
	return &Entry{table: t, key: key}
}

func (e *Entry) Read() string   { return e.table.GetString(e.key) }
func (e *Entry) Write(v string) { e.table.PutString(e.key, v) }
func (e *Entry) Key() string    { return e.key }
