// Package optimistic is the client-side cache discipline for in-flight
// mutations: provisional records are spliced into cached connections
// before the server answers, then reconciled with the authoritative row
// or rolled back on error. The cache is an explicit reducer over ordered
// lists keyed by entity id; it has no coupling to any store or transport.
package optimistic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"learninglog-backend/domain/learninglog"
)

// TempIDPrefix marks provisional identifiers. Server-assigned ids are
// UUIDs, so the prefix guarantees the two namespaces never collide.
const TempIDPrefix = "client:new-log:"

// Status tracks one in-flight mutation through its state machine.
type Status string

const (
	StatusOptimistic Status = "optimistic"
	StatusReconciled Status = "reconciled"
	StatusRolledBack Status = "rolled-back"
)

// Filter mirrors the connection filter so each cached connection can
// decide whether a new record belongs in it. Matching runs client-side
// before any splice, so a connection never shows a record its own filter
// would exclude.
type Filter struct {
	TagsAny []string
	TagsAll []string
	Query   string
	From    *time.Time
	To      *time.Time
}

// Matches evaluates the filter against one record, mirroring the server
// predicate: tags match exact-string, the query is a case-insensitive
// substring over title and reflection, date bounds are inclusive.
func (f Filter) Matches(log learninglog.Log) bool {
	if len(f.TagsAny) > 0 {
		found := false
		for _, want := range f.TagsAny {
			for _, tag := range log.Tags {
				if tag == want {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}

	for _, want := range f.TagsAll {
		found := false
		for _, tag := range log.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		haystack := strings.ToLower(log.Title + "\n" + log.Reflection)
		if !strings.Contains(haystack, strings.ToLower(q)) {
			return false
		}
	}

	if f.From != nil && log.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && log.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Key derives the connection key from the filter value. Equal filters
// produce equal keys regardless of tag order.
func (f Filter) Key() string {
	canon := func(tags []string) string {
		sorted := append([]string(nil), tags...)
		sort.Strings(sorted)
		return strings.Join(sorted, ",")
	}
	bound := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("any=%s|all=%s|q=%s|from=%s|to=%s",
		canon(f.TagsAny), canon(f.TagsAll),
		strings.ToLower(strings.TrimSpace(f.Query)),
		bound(f.From), bound(f.To))
}

type connection struct {
	filter Filter
	items  []learninglog.Log
}

// Cache holds every registered connection plus the state of in-flight
// mutations. It is not safe for concurrent use; the caller serializes
// access the way a UI thread does.
type Cache struct {
	conns    map[string]*connection
	statuses map[string]Status
	nextTemp int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		conns:    make(map[string]*connection),
		statuses: make(map[string]Status),
	}
}

// Register seeds (or replaces) the connection for a filter with a page
// of server results.
func (c *Cache) Register(f Filter, items []learninglog.Log) {
	c.conns[f.Key()] = &connection{
		filter: f,
		items:  append([]learninglog.Log(nil), items...),
	}
}

// Items returns the current view of one connection.
func (c *Cache) Items(f Filter) []learninglog.Log {
	conn, ok := c.conns[f.Key()]
	if !ok {
		return nil
	}
	return append([]learninglog.Log(nil), conn.items...)
}

// Status reports the state of one in-flight mutation.
func (c *Cache) Status(tempID string) (Status, bool) {
	s, ok := c.statuses[tempID]
	return s, ok
}

// InsertOptimistic synthesizes a provisional record from the input and a
// local timestamp and splices it into every connection whose filter it
// satisfies, at the position the canonical ordering puts it. It returns
// the record's temporary id for the later reconcile or rollback.
func (c *Cache) InsertOptimistic(in learninglog.CreateInput, now time.Time) string {
	c.nextTemp++
	tempID := fmt.Sprintf("%s%d", TempIDPrefix, c.nextTemp)

	provisional := learninglog.Log{
		ID:         tempID,
		Title:      in.Title,
		Reflection: in.Reflection,
		Tags:       append([]string(nil), in.Tags...),
		TimeSpent:  in.TimeSpent,
		SourceURL:  in.SourceURL,
		CreatedAt:  now.UTC().Truncate(time.Millisecond),
	}

	for _, conn := range c.conns {
		if conn.filter.Matches(provisional) {
			conn.items = splice(conn.items, provisional)
		}
	}

	c.statuses[tempID] = StatusOptimistic
	return tempID
}

// Reconcile replaces the provisional record with the authoritative one
// from the server. The record moves to the position the server timestamp
// dictates; connections the authoritative record no longer satisfies
// drop it. Reconciling an unknown or settled mutation is a no-op.
func (c *Cache) Reconcile(tempID string, authoritative learninglog.Log) {
	if c.statuses[tempID] != StatusOptimistic {
		return
	}
	for _, conn := range c.conns {
		conn.items = remove(conn.items, tempID)
		if conn.filter.Matches(authoritative) {
			conn.items = splice(conn.items, authoritative)
		}
	}
	c.statuses[tempID] = StatusReconciled
}

// Rollback fully reverts the provisional splice; no partial state is
// retained in any connection.
func (c *Cache) Rollback(tempID string) {
	if c.statuses[tempID] != StatusOptimistic {
		return
	}
	for _, conn := range c.conns {
		conn.items = remove(conn.items, tempID)
	}
	c.statuses[tempID] = StatusRolledBack
}

// Apply writes an authoritative record through every connection: updated
// rows are replaced in place, rows newly excluded by a filter drop out.
// Two edits in flight for the same entity are not coordinated; the last
// response wins.
func (c *Cache) Apply(log learninglog.Log) {
	for _, conn := range c.conns {
		conn.items = remove(conn.items, log.ID)
		if conn.filter.Matches(log) {
			conn.items = splice(conn.items, log)
		}
	}
}

// Remove drops a deleted record from every connection.
func (c *Cache) Remove(id string) {
	for _, conn := range c.conns {
		conn.items = remove(conn.items, id)
	}
}

// splice inserts the record at the position the canonical ordering
// (createdAt desc, id desc) assigns. A fresh local timestamp is newest,
// so the common case is a prepend.
func splice(items []learninglog.Log, log learninglog.Log) []learninglog.Log {
	at := len(items)
	for i, item := range items {
		if before(log, item) {
			at = i
			break
		}
	}
	out := make([]learninglog.Log, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, log)
	return append(out, items[at:]...)
}

func before(a, b learninglog.Log) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func remove(items []learninglog.Log, id string) []learninglog.Log {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
