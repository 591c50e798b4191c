package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/core/ports/driven"
	"github.com/windward-data/sailtap/internal/core/ports/driving"
	"github.com/windward-data/sailtap/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncRunner = (*SyncEngine)(nil)

// signupFields is the fallback chain for the per-record signup
// timestamp that gates selective child syncs.
var signupFields = []string{"list_signup", "profile_created_date", "signup_date"}

// SyncEngine drives checkpointed record extraction across the stream
// hierarchy: it pulls raw records partition by partition, cascades into
// child streams depth-first, enforces ordering and record-count
// invariants and interleaves state checkpoints with the record stream.
// It is the sole writer of bookmark state.
type SyncEngine struct {
	catalog  driven.Catalog
	writer   driven.MessageWriter
	store    driven.CheckpointStore
	settings domain.Settings

	// cutoff is midnight UTC yesterday, fixed when the engine is
	// built. Records whose signup timestamp is strictly after it
	// trigger child syncs on selective streams.
	cutoff time.Time

	state        *domain.State
	totalRecords int
	selected     map[string]bool
	syncable     map[string]bool

	// Status tracking
	mu     sync.RWMutex
	status driving.SyncStatus
}

// NewSyncEngine creates a sync engine over the given catalog.
// Records are emitted through writer; bookmark state is loaded from and
// saved to store under the account's API key.
func NewSyncEngine(
	catalog driven.Catalog,
	writer driven.MessageWriter,
	store driven.CheckpointStore,
	settings domain.Settings,
) *SyncEngine {
	if settings.Sync.CheckpointFrequency <= 0 {
		settings.Sync.CheckpointFrequency = domain.DefaultSettings().Sync.CheckpointFrequency
	}
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return &SyncEngine{
		catalog:  catalog,
		writer:   writer,
		store:    store,
		settings: settings,
		cutoff:   midnight.AddDate(0, 0, -1),
	}
}

// invocation is one sync pass of a stream over its context set. Child
// streams get a fresh invocation per triggering parent record.
type invocation struct {
	stream driven.Stream
	def    domain.StreamDef

	// external marks an invocation scoped to a single parent-derived
	// context. Only full invocations finalise the stream bookmark.
	external bool

	// recordCount counts records across all partitions of this
	// invocation, driving checkpoint cadence and the completion log.
	recordCount int

	// skipped marks an invocation that abandoned at least one
	// partition. Its stream bookmark must not finalise: the in-flight
	// progress markers are what the next run resumes from.
	skipped bool
}

// syncFrame is one partition of an invocation on the depth-first
// stack. Child frames are pushed on top, so a record's child syncs
// complete before the record itself is emitted.
type syncFrame struct {
	inv        *invocation
	ctx        domain.Partition
	statePart  domain.Partition
	childAccum domain.Partition
	next       func() (*domain.Record, error, bool)
	stop       func()
	started    bool
	pending    *domain.Record
	count      int
	last       bool
}

// Sync runs extraction for the named streams and their children, or
// for every stream when names is empty.
func (e *SyncEngine) Sync(ctx context.Context, names []string) error {
	// 1. Resolve stream selection
	if err := e.selectStreams(names); err != nil {
		return err
	}

	// 2. Load the prior checkpoint
	state, err := e.store.Load(ctx, e.settings.Account.APIKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if state == nil {
		state = domain.NewState()
	}
	e.state = state
	e.totalRecords = 0

	e.setRunning(true)
	defer e.setRunning(false)

	logger.Info("Starting sync")

	// 3. Walk every syncable root stream depth-first
	runErr := e.run(ctx)

	// 4. Persist bookmarks, even after a failure. Everything already
	// checkpointed stays checkpointed.
	if err := e.store.Save(ctx, e.settings.Account.APIKey, e.state); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save checkpoint: %w", err))
	}
	if err := e.writer.Flush(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("flush events: %w", err))
	}

	if runErr == nil {
		logger.Info("Sync complete: %d records", e.totalRecords)
	}
	return runErr
}

// Status returns progress counters. Safe to call from another
// goroutine while Sync runs.
func (e *SyncEngine) Status() driving.SyncStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// run drains the frame stack for each root stream in catalog order.
//
//nolint:gocognit // Orchestration loop with necessary sequential branches
func (e *SyncEngine) run(ctx context.Context) error {
	var stack []*syncFrame
	defer func() {
		for _, f := range stack {
			if f.stop != nil {
				f.stop()
			}
		}
	}()

	for _, root := range e.catalog.Roots() {
		if !e.syncs(root.Def().Name) {
			continue
		}
		stack = e.pushInvocation(stack, root, nil)

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := stack[len(stack)-1]
			if !f.started {
				e.beginPartition(ctx, f)
			}

			// A pending record is emitted once its child syncs are done.
			if f.pending != nil {
				if err := e.emitPending(f); err != nil {
					return err
				}
				continue
			}

			record, err, ok := f.next()
			if !ok {
				e.finishPartition(f)
				stack = stack[:len(stack)-1]
				if err := e.maybeEpilogue(f); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				skip, isSkip := domain.AsSkip(err)
				if !isSkip {
					return fmt.Errorf("fetch records for %s: %w", f.inv.def.Name, err)
				}
				logger.Warn("Skipping partition %s of %s: %s", f.ctx.Key(), f.inv.def.Name, skip.Reason)
				f.inv.skipped = true
				e.noteSkip()
				f.stop()
				stack = stack[:len(stack)-1]
				if err := e.maybeEpilogue(f); err != nil {
					return err
				}
				continue
			}

			stack = e.processRecord(stack, f, record)
		}
	}
	return nil
}

// beginPartition prepares a frame the first time it reaches the top of
// the stack.
func (e *SyncEngine) beginPartition(ctx context.Context, f *syncFrame) {
	def := f.inv.def
	f.statePart = def.StatePartition(f.ctx)
	f.childAccum = f.ctx.Clone()
	if def.HasReplicationKey() {
		e.state.BookmarkFor(def, f.ctx).WriteStarting(e.startValue())
	}
	f.next, f.stop = iter.Pull2(f.inv.stream.Records(ctx, f.ctx))
	f.started = true
	e.setCurrentStream(def.Name)
	logger.Debug("Syncing partition %s of %s", f.ctx.Key(), def.Name)
}

// processRecord folds one raw record into the frame and pushes child
// invocations when the record triggers them.
func (e *SyncEngine) processRecord(stack []*syncFrame, f *syncFrame, record *domain.Record) []*syncFrame {
	def := f.inv.def

	// 1. Fold the record into the running child-context accumulator.
	// A colliding derivation key keeps only the most recent value.
	childOK := len(def.Children) > 0
	if childOK {
		accum, err := f.inv.stream.ChildContext(record, f.childAccum)
		if err != nil {
			logger.Warn("No child context from %s record: %v", def.Name, err)
			childOK = false
		} else {
			f.childAccum = accum
		}
	}

	// 2. Inherit state partition fields the record does not define
	for _, key := range f.statePart.Keys() {
		if !record.Has(key) {
			value, _ := f.statePart.Get(key)
			record.Set(key, value)
		}
	}

	// 3. Decide whether this record triggers its child syncs now
	f.pending = record
	if !childOK {
		return stack
	}
	if def.SelectiveChildren && !e.signupTime(record).After(e.cutoff) {
		return stack
	}

	// 4. Push child invocations, first child on top
	for i := len(def.Children) - 1; i >= 0; i-- {
		name := def.Children[i]
		if !e.syncs(name) {
			continue
		}
		child, err := e.catalog.Stream(name)
		if err != nil {
			logger.Warn("Unknown child stream %s of %s", name, def.Name)
			continue
		}
		ext := f.childAccum.Clone()
		stack = e.pushInvocation(stack, child, &ext)
	}
	return stack
}

// emitPending enforces the record ceiling, writes the interim
// checkpoint at each cadence boundary, emits the record and advances
// the bookmark.
func (e *SyncEngine) emitPending(f *syncFrame) error {
	def := f.inv.def
	record := f.pending

	// The record ceiling spans the whole run, children included.
	if limit := e.settings.Sync.RecordLimit; limit > 0 && e.totalRecords >= limit {
		err := &domain.RecordLimitError{Stream: def.Name, Limit: limit}
		logger.Error("%v", err)
		return err
	}

	if e.emits(def.Name) {
		// Ordering is checked before the record goes out: everything
		// already emitted is trustworthy, the offending record never is.
		if err := e.checkOrder(f, record); err != nil {
			return err
		}
		if (f.inv.recordCount-1)%e.settings.Sync.CheckpointFrequency == 0 {
			if err := e.writeState(); err != nil {
				return err
			}
		}
		if err := e.writer.WriteRecord(def.Name, record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		e.totalRecords++
		e.noteRecord()

		if def.HasReplicationKey() {
			if value, ok := record.Get(def.ReplicationKey); ok && value != nil {
				e.state.BookmarkFor(def, f.ctx).Advance(def.ReplicationKey, value)
			}
		}
	}

	f.inv.recordCount++
	f.count++
	f.pending = nil
	return nil
}

// checkOrder fails the run when the record's replication value
// regresses below the partition's in-flight cursor.
func (e *SyncEngine) checkOrder(f *syncFrame, record *domain.Record) error {
	def := f.inv.def
	if !def.HasReplicationKey() {
		return nil
	}
	value, ok := record.Get(def.ReplicationKey)
	if !ok || value == nil {
		return nil
	}
	latest := e.state.BookmarkFor(def, f.ctx).Latest()
	if latest == nil || domain.CompareReplicationValues(value, latest) >= 0 {
		return nil
	}
	err := &domain.OutOfOrderError{
		Stream:         def.Name,
		Partition:      f.ctx,
		StatePartition: f.statePart,
		StreamCount:    f.inv.recordCount + 1,
		PartitionCount: f.count + 1,
		Previous:       latest,
		Latest:         value,
	}
	logger.Error("%v", err)
	return err
}

// finishPartition closes a cleanly exhausted partition. Its bookmark is
// finalised only when the synced context is exactly its state
// partition, not a slice of a larger batch. Skipped partitions never
// reach here, so their progress markers survive for the next run.
func (e *SyncEngine) finishPartition(f *syncFrame) {
	f.stop()
	if f.ctx.Equal(f.statePart) {
		e.state.BookmarkFor(f.inv.def, f.ctx).Finalize()
	}
}

// maybeEpilogue runs the invocation epilogue when its last partition
// pops: finalise the stream bookmark for full invocations, log the
// record count and emit a closing checkpoint. Invocations with a
// skipped partition never finalise, so their progress markers survive
// for the next run.
func (e *SyncEngine) maybeEpilogue(f *syncFrame) error {
	if !f.last {
		return nil
	}
	def := f.inv.def
	if !f.inv.external && !f.inv.skipped {
		e.state.Stream(def.Name).Bookmark.Finalize()
	}
	if f.inv.external {
		logger.Info("Synced %d records from %s partition %s", f.inv.recordCount, def.Name, f.ctx.Key())
	} else {
		logger.Info("Synced %d records from %s", f.inv.recordCount, def.Name)
	}
	return e.writeState()
}

// signupTime resolves the per-record signup timestamp through the
// fallback chain. Records with no usable timestamp resolve to the
// cutoff itself, which never triggers a child sync.
func (e *SyncEngine) signupTime(record *domain.Record) time.Time {
	for _, field := range signupFields {
		value := record.GetString(field)
		if value == "" {
			continue
		}
		t, err := domain.ParseTime(value)
		if err != nil {
			return e.cutoff
		}
		return t
	}
	return e.cutoff
}

// pushInvocation pushes one invocation's partition frames, first
// partition on top.
func (e *SyncEngine) pushInvocation(stack []*syncFrame, stream driven.Stream, external *domain.Partition) []*syncFrame {
	def := stream.Def()
	inv := &invocation{stream: stream, def: def, external: external != nil}

	var contexts []domain.Partition
	if external != nil {
		contexts = []domain.Partition{*external}
	} else {
		contexts = e.knownPartitions(def)
	}

	frames := make([]*syncFrame, len(contexts))
	for i, c := range contexts {
		frames[i] = &syncFrame{inv: inv, ctx: c}
	}
	frames[len(frames)-1].last = true

	for i := len(frames) - 1; i >= 0; i-- {
		stack = append(stack, frames[i])
	}
	return stack
}

// knownPartitions returns the contexts a full invocation iterates: the
// partitions recorded in state, or the single root partition when none
// exist yet.
func (e *SyncEngine) knownPartitions(def domain.StreamDef) []domain.Partition {
	ss, ok := e.state.Bookmarks[def.Name]
	if !ok || len(ss.Partitions) == 0 {
		return []domain.Partition{domain.NewPartition()}
	}
	out := make([]domain.Partition, len(ss.Partitions))
	for i, ps := range ss.Partitions {
		out[i] = ps.Context.Clone()
	}
	return out
}

// selectStreams resolves the requested stream names into the selection
// and syncable sets. A stream syncs when it or any descendant is
// selected; only selected streams emit records.
func (e *SyncEngine) selectStreams(names []string) error {
	if len(names) == 0 {
		e.selected = nil
		e.syncable = nil
		return nil
	}
	selected := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := e.catalog.Stream(name); err != nil {
			return err
		}
		selected[name] = true
	}
	syncable := make(map[string]bool)
	for _, name := range e.catalog.Names() {
		syncable[name] = e.subtreeSelected(name, selected)
	}
	e.selected = selected
	e.syncable = syncable
	return nil
}

func (e *SyncEngine) subtreeSelected(name string, selected map[string]bool) bool {
	if selected[name] {
		return true
	}
	stream, err := e.catalog.Stream(name)
	if err != nil {
		return false
	}
	for _, child := range stream.Def().Children {
		if e.subtreeSelected(child, selected) {
			return true
		}
	}
	return false
}

func (e *SyncEngine) emits(name string) bool {
	return e.selected == nil || e.selected[name]
}

func (e *SyncEngine) syncs(name string) bool {
	return e.syncable == nil || e.syncable[name]
}

func (e *SyncEngine) startValue() any {
	if e.settings.Sync.StartDate == "" {
		return nil
	}
	return e.settings.Sync.StartDate
}

func (e *SyncEngine) writeState() error {
	if err := e.writer.WriteState(e.state); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	e.noteCheckpoint()
	return nil
}

func (e *SyncEngine) setRunning(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v {
		e.status = driving.SyncStatus{Running: true}
		return
	}
	e.status.Running = false
}

func (e *SyncEngine) setCurrentStream(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.CurrentStream = name
}

func (e *SyncEngine) noteRecord() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Records++
}

func (e *SyncEngine) noteCheckpoint() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Checkpoints++
}

func (e *SyncEngine) noteSkip() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.SkippedPartitions++
}
