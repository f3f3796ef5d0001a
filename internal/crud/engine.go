package crud

import (
	"context"
	"fmt"

	"github.com/sushihentaime/blogpress/internal/common"
)

const (
	// OwnerField is the record key holding the owning user's id.
	OwnerField = "ownerId"

	DefaultPageSize = 5
)

// Collection is the persistence handle the engine drives. Implementations
// map records to their backing store; every method returns
// common.ErrRecordNotFound when the target row is gone.
type Collection interface {
	Name() string
	SelectOwned(ctx context.Context, ownerID, limit, offset int) ([]Record, error)
	SelectOthers(ctx context.Context, ownerID, limit, offset int) ([]Record, error)
	Get(ctx context.Context, id int) (Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, id int, fields Record) (Record, error)
	Delete(ctx context.Context, id int) (Record, error)
}

// Engine provides list/get/create/update/delete over a Collection with
// per-caller ownership enforcement, pagination and schema normalization.
// It is resource-agnostic: blogs use it today, any future resource type
// only needs a Collection and a Schema.
type Engine struct {
	col      Collection
	schema   Schema
	hidden   []string
	pageSize int
}

// NewEngine builds an engine over col. hidden lists internal bookkeeping
// fields (such as version counters) stripped from every response record.
func NewEngine(col Collection, schema Schema, hidden []string, pageSize int) *Engine {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	return &Engine{
		col:      col,
		schema:   schema,
		hidden:   hidden,
		pageSize: pageSize,
	}
}

// List returns the callerID-owned page of the collection. An empty page is
// reported as common.ErrRecordNotFound rather than an empty success:
// callers must handle both.
func (e *Engine) List(ctx context.Context, callerID, page int) ([]Record, error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}

	recs, err := e.col.SelectOwned(ctx, callerID, e.pageSize, (page-1)*e.pageSize)
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("no %s found: %w", e.col.Name(), common.ErrRecordNotFound)
	}

	return e.projectAll(recs), nil
}

// ListOthers returns the page of resources the caller does not own, the
// discovery feed. Unlike List, an empty page is an empty success.
func (e *Engine) ListOthers(ctx context.Context, callerID, page int) ([]Record, error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}

	recs, err := e.col.SelectOthers(ctx, callerID, e.pageSize, (page-1)*e.pageSize)
	if err != nil {
		return nil, err
	}

	return e.projectAll(recs), nil
}

// Get fetches a single resource. Ownership is checked after the fetch, so
// a foreign id yields ErrNotOwner rather than ErrRecordNotFound.
func (e *Engine) Get(ctx context.Context, callerID, id int) (Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	rec, err := e.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.OwnerID() != callerID {
		return nil, common.ErrNotOwner
	}

	return e.project(rec), nil
}

// Create normalizes input merged with extra and the caller's identity in
// full schema mode, then persists the new resource. extra carries fields
// computed by collaborators, such as an uploaded media URL.
func (e *Engine) Create(ctx context.Context, callerID int, input, extra Record) (Record, error) {
	merged := make(Record, len(input)+len(extra)+1)
	for k, val := range input {
		merged[k] = val
	}
	for k, val := range extra {
		merged[k] = val
	}
	merged[OwnerField] = callerID

	norm, err := Normalize(merged, e.schema, false)
	if err != nil {
		return nil, err
	}

	rec, err := e.col.Insert(ctx, norm)
	if err != nil {
		return nil, err
	}

	return e.project(rec), nil
}

// Update applies the supplied fields to an owned resource. Normalization
// runs in partial mode so omitted fields keep their stored values, and the
// owner field is never updatable.
func (e *Engine) Update(ctx context.Context, callerID, id int, input Record) (Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	rec, err := e.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.OwnerID() != callerID {
		return nil, common.ErrNotOwner
	}

	fields, err := Normalize(input, e.schema, true)
	if err != nil {
		return nil, err
	}
	delete(fields, OwnerField)

	if len(fields) == 0 {
		return e.project(rec), nil
	}

	updated, err := e.col.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	return e.project(updated), nil
}

// Delete removes an owned resource and returns it as confirmation.
func (e *Engine) Delete(ctx context.Context, callerID, id int) (Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	rec, err := e.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.OwnerID() != callerID {
		return nil, common.ErrNotOwner
	}

	deleted, err := e.col.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	return e.project(deleted), nil
}

// OwnerID extracts the owner id from a record, tolerating the numeric
// types different scan paths produce.
func (r Record) OwnerID() int {
	switch n := r[OwnerField].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func (e *Engine) project(rec Record) Record {
	out := make(Record, len(rec))
	for k, val := range rec {
		out[k] = val
	}
	for _, h := range e.hidden {
		delete(out, h)
	}
	return out
}

func (e *Engine) projectAll(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, e.project(rec))
	}
	return out
}

func checkPage(page int) error {
	v := common.NewValidator()
	v.Check(page > 0, "page", "must be a positive integer")
	if !v.Valid() {
		return v.ValidationError()
	}
	return nil
}

func checkID(id int) error {
	v := common.NewValidator()
	v.Check(id > 0, "id", "must be a positive integer")
	if !v.Valid() {
		return v.ValidationError()
	}
	return nil
}
