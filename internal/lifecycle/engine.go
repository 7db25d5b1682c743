// Package lifecycle implements hemli's secret lifecycle: it decides when a
// cached record is still valid, runs the source command when it is not, and
// keeps the credential store and the index in step.
//
// The credential store is authoritative. Every mutation writes the store
// first and only then touches the index; an index failure after a successful
// store write is logged and repaired by the next mutation or by Repair.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/systmms/hemli/internal/credstore"
	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/index"
	"github.com/systmms/hemli/internal/logging"
	"github.com/systmms/hemli/internal/metrics"
	"github.com/systmms/hemli/internal/secret"
	"github.com/systmms/hemli/internal/source"
)

// Engine orchestrates get, set, edit, delete, list and inspect.
type Engine struct {
	store   *credstore.Store
	index   *index.File
	runner  *source.Runner
	logger  *logging.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine over its three collaborators.
func New(store *credstore.Store, idx *index.File, runner *source.Runner, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		index:  idx,
		runner: runner,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetResult is the outcome of a get.
type GetResult struct {
	Value   string
	State   secret.State // state of the record before the call
	Fetched bool
	Stored  bool
}

// Get returns the current value for req.ID, fetching it when the record is
// missing, expired or a refresh is forced.
func (e *Engine) Get(ctx context.Context, req GetRequest) (*GetResult, error) {
	existing, err := e.read(req.ID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	state := secret.StateOf(existing, now)
	e.logger.Debug("secret %s is %s (mode %s)", req.ID, state, req.Mode)
	if e.logger.DebugEnabled() && existing != nil {
		if exp := existing.ExpiresAt(); exp != nil {
			e.logger.Debug("secret %s expires at %s", req.ID, exp.Format(time.RFC3339))
		}
	}

	switch req.Mode {
	case NoRefresh:
		if state == secret.Missing {
			e.metrics.RecordGet("miss")
			return nil, dserrors.NotFoundError{Namespace: req.ID.Namespace, Name: req.ID.Name}
		}
		e.metrics.RecordGet(map[secret.State]string{secret.Fresh: "hit", secret.Expired: "stale"}[state])
		return &GetResult{Value: existing.Value, State: state}, nil
	case RefreshDefault, NoStore:
		if state == secret.Fresh {
			e.logger.Debug("returning cached secret %s", req.ID)
			e.metrics.RecordGet("hit")
			return &GetResult{Value: existing.Value, State: state}, nil
		}
	}

	src, ok := resolveSource(req.Source, existing)
	if !ok {
		return nil, dserrors.NoSource(req.ID.Namespace, req.ID.Name)
	}
	e.metrics.RecordGet(outcome(req.Mode, state))

	value, err := e.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	result := &GetResult{Value: value, State: state, Fetched: true}
	if req.Mode == NoStore {
		e.logger.Debug("not storing %s (no-store)", req.ID)
		return result, nil
	}

	rec := refreshed(existing, value, req, src, e.now())
	if err := e.write(req.ID, rec); err != nil {
		return nil, err
	}
	e.upsertIndex(req.ID, rec.CreatedAt)
	e.logger.Debug("stored secret %s in credential store and index", req.ID)
	result.Stored = true
	return result, nil
}

// Put stores a value with no source command. An existing record keeps its
// created_at; its provenance is dropped.
func (e *Engine) Put(ctx context.Context, req PutRequest) (*secret.Record, error) {
	existing, err := e.read(req.ID)
	if err != nil {
		return nil, err
	}

	var rec *secret.Record
	if existing == nil {
		rec = secret.New(req.Value, nil, req.TTL, e.now())
	} else {
		rec = existing
		rec.Value = req.Value
		rec.SetSource(nil)
		if req.TTL != nil {
			rec.SetTTL(req.TTL)
		}
	}

	if err := e.write(req.ID, rec); err != nil {
		return nil, err
	}
	e.upsertIndex(req.ID, rec.CreatedAt)
	return rec, nil
}

// Edit changes TTL and/or provenance of an existing record without fetching.
func (e *Engine) Edit(ctx context.Context, req EditRequest) (*secret.Record, error) {
	rec, err := e.read(req.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, dserrors.NotFoundError{Namespace: req.ID.Namespace, Name: req.ID.Name}
	}

	req.TTL.apply(rec)
	if req.Source != nil {
		rec.SetSource(req.Source)
	}

	if err := e.write(req.ID, rec); err != nil {
		return nil, err
	}
	e.upsertIndex(req.ID, rec.CreatedAt)
	return rec, nil
}

// Delete removes the record and its index entry. Deleting an absent identity
// is not an error; the returned bool reports whether a record existed.
func (e *Engine) Delete(ctx context.Context, id secret.ID) (bool, error) {
	found, err := e.store.Delete(id.Service(), id.Account())
	e.metrics.RecordStore("delete", err)
	if err != nil {
		return false, err
	}
	if !found {
		e.logger.Debug("secret %s not present in credential store", id)
	}

	idx, err := e.index.Load()
	if err != nil {
		e.logger.Warn("could not update index after deleting %s: %v", id, err)
		return found, nil
	}
	if idx.Remove(id) {
		err := e.index.Save(idx)
		e.metrics.RecordIndexWrite(err)
		if err != nil {
			e.logger.Warn("could not update index after deleting %s: %v", id, err)
		}
	}
	return found, nil
}

// Inspect returns the full stored record.
func (e *Engine) Inspect(ctx context.Context, id secret.ID) (*secret.Record, error) {
	rec, err := e.read(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, dserrors.NotFoundError{Namespace: id.Namespace, Name: id.Name}
	}
	return rec, nil
}

// List returns index entries, restricted to namespace when it is not empty,
// in index order.
func (e *Engine) List(ctx context.Context, namespace string) ([]index.Entry, error) {
	idx, err := e.index.Load()
	if err != nil {
		return nil, err
	}
	return idx.Filter(namespace), nil
}

// Repair drops index entries whose credential store entry no longer exists
// and returns the identities it removed.
func (e *Engine) Repair(ctx context.Context) ([]secret.ID, error) {
	idx, err := e.index.Load()
	if err != nil {
		return nil, err
	}

	var pruned []secret.ID
	for _, entry := range idx.Filter("") {
		id := entry.ID()
		ok, err := e.store.Exists(id.Service(), id.Account())
		e.metrics.RecordStore("read", err)
		if err != nil {
			return nil, err
		}
		if !ok {
			idx.Remove(id)
			pruned = append(pruned, id)
		}
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	err = e.index.Save(idx)
	e.metrics.RecordIndexWrite(err)
	if err != nil {
		return nil, err
	}
	return pruned, nil
}

func (e *Engine) read(id secret.ID) (*secret.Record, error) {
	data, err := e.store.Read(id.Service(), id.Account())
	if errors.Is(err, credstore.ErrItemNotFound) {
		e.metrics.RecordStore("read", nil)
		return nil, nil
	}
	e.metrics.RecordStore("read", err)
	if err != nil {
		return nil, err
	}

	rec, err := secret.Decode(data)
	if err != nil {
		return nil, &dserrors.StoreError{Op: "decode", Service: id.Service(), Account: id.Account(), Err: err}
	}
	return rec, nil
}

func (e *Engine) write(id secret.ID, rec *secret.Record) error {
	data, err := secret.Encode(rec)
	if err != nil {
		return err
	}
	err = e.store.Write(id.Service(), id.Account(), data)
	e.metrics.RecordStore("write", err)
	return err
}

// upsertIndex runs after a successful store write. A failure here leaves the
// secret readable but unlisted until the next successful index write.
func (e *Engine) upsertIndex(id secret.ID, createdAt time.Time) {
	err := e.index.Update(func(idx *index.Index) error {
		idx.Upsert(id, createdAt)
		return nil
	})
	e.metrics.RecordIndexWrite(err)
	if err != nil {
		e.logger.Warn("secret %s stored but index %s was not updated: %v", id, e.index.Path(), err)
	}
}

func (e *Engine) fetch(ctx context.Context, src secret.Source) (string, error) {
	e.logger.Debug("fetching secret with %s command %q", src.Mode, src.Command)
	start := time.Now()
	v, err := e.runner.Fetch(ctx, src)
	e.metrics.RecordSource(string(src.Mode), err, time.Since(start))
	if err != nil {
		return "", err
	}
	defer v.Destroy()

	value, err := v.Reveal()
	if err != nil {
		return "", err
	}
	e.logger.Debug("fetched value %v (%d bytes)", logging.Secret(value), v.Len())
	return value, nil
}

// resolveSource picks the explicit source, else the stored provenance.
func resolveSource(explicit *secret.Source, stored *secret.Record) (secret.Source, bool) {
	if explicit != nil {
		return *explicit, true
	}
	if stored != nil && stored.Source != nil {
		return *stored.Source, true
	}
	return secret.Source{}, false
}

// refreshed builds the record persisted after a fetch. An existing record
// keeps created_at, so a new TTL is measured from the original creation.
func refreshed(existing *secret.Record, value string, req GetRequest, src secret.Source, now time.Time) *secret.Record {
	if existing == nil {
		return secret.New(value, &src, req.TTL, now)
	}
	rec := *existing
	rec.Value = value
	if req.TTL != nil {
		rec.SetTTL(req.TTL)
	}
	if req.Source != nil {
		rec.SetSource(req.Source)
	}
	return &rec
}

func outcome(mode RefreshMode, state secret.State) string {
	switch {
	case mode == ForceRefresh:
		return "forced"
	case state == secret.Expired:
		return "expired"
	default:
		return "miss"
	}
}
