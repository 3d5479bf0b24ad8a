package serialize

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/registry"
	"github.com/loomkit/loom/internal/log"
	"github.com/loomkit/loom/internal/tracing"
)

// propertyLister is implemented by components whose scalar properties are
// captured in records.
type propertyLister interface {
	Values() map[string]any
}

// propertyApplier is implemented by components that can take back their
// recorded scalar properties without notifying observers.
type propertyApplier interface {
	ApplyProperties(values map[string]any) error
}

// Manager serializes registry subtrees to flat record lists and rebuilds
// graphs from them.
type Manager struct {
	reg       *registry.Registry
	factories *Factories
	tracer    trace.Tracer
}

// Option configures a Manager.
type Option func(*Manager)

// WithTracer attaches an OpenTelemetry tracer; spans wrap the serialize
// walk and both deserialization phases.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// NewManager creates a serialization manager over a registry and a
// factory table.
func NewManager(reg *registry.Registry, factories *Factories, opts ...Option) *Manager {
	m := &Manager{
		reg:       reg,
		factories: factories,
		tracer:    noop.NewTracerProvider().Tracer("loom"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SerializeGraph walks the subtree under rootID and returns one record
// per component, parents before children. The root's own parent link is
// dropped so the record set stands alone; every other relationship inside
// the subtree is captured. Bindings are recorded on the observable-side
// record.
func (m *Manager) SerializeGraph(rootID ident.ID) ([]Record, error) {
	_, span := m.tracer.Start(context.Background(), tracing.SpanSerializeGraph,
		trace.WithAttributes(attribute.String(tracing.AttrRootID, string(rootID))))
	defer span.End()

	if _, err := m.reg.Get(rootID); err != nil {
		return nil, err
	}

	var records []Record
	var walk func(id ident.ID, isRoot bool) error
	walk = func(id ident.ID, isRoot bool) error {
		rec, err := m.recordFor(id, isRoot)
		if err != nil {
			return err
		}
		records = append(records, rec)
		children, err := m.reg.ChildrenOf(id)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child, false); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rootID, true); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int(tracing.AttrRecordCount, len(records)))
	log.Debug(log.CatSerial, "serialized subtree", "root", rootID, "records", len(records))
	return records, nil
}

func (m *Manager) recordFor(id ident.ID, isRoot bool) (Record, error) {
	component, err := m.reg.Get(id)
	if err != nil {
		return Record{}, err
	}
	parts, err := ident.Parse(id)
	if err != nil {
		return Record{}, err
	}

	rec := Record{ID: id, Kind: parts.Kind}
	if lister, ok := component.(propertyLister); ok {
		rec.Properties = lister.Values()
	}
	if isRoot {
		// The subtree stands alone: the root's parent link and the parent
		// segment of its identifier are dropped together.
		rec.ID = ident.Build(parts.Kind, parts.Unique, "", parts.Location)
	} else {
		parentID, err := m.reg.ParentOf(id)
		if err != nil {
			return Record{}, err
		}
		rec.Relationships.ParentID = parentID
	}
	for _, b := range m.reg.BindingsFor(id) {
		if b.ObservableID != id {
			continue
		}
		rec.Relationships.Bindings = append(rec.Relationships.Bindings, BindingRef{
			ControllerID:       b.ControllerID,
			ControllerProperty: b.ControllerProperty,
			Property:           b.ObservableProperty,
		})
	}
	return rec, nil
}

// DeserializeGraph rebuilds components from records in two phases.
//
// Phase 1 materializes every record: an already-live component with the
// same unique suffix is reused, otherwise the kind's factory constructs a
// fresh one, which is registered parentless. Only scalar properties are
// applied. A record that fails here aborts its own subtree: records whose
// parent chain leads to the failure are skipped, and all of their ids
// land in the returned Report.
//
// Phase 2 wires relationships against the now-complete map, so input
// order does not matter. Unresolvable references are collected as
// dangling, never silently dropped.
//
// ctx is checked between records in both phases. On cancellation the
// partial result is returned with the context error; records wired so
// far are complete and the rest are materialized but unparented.
//
// The returned map is keyed by the final live identifiers. The error is a
// *Report when any record failed or any reference dangled, nil when the
// whole graph reconstructed.
func (m *Manager) DeserializeGraph(ctx context.Context, records []Record) (map[ident.ID]registry.Component, error) {
	report := &Report{}

	materialized, err := m.materialize(ctx, records, report)
	if err != nil {
		return m.collect(materialized), err
	}

	if err := m.wire(ctx, records, materialized, report); err != nil {
		return m.collect(materialized), err
	}

	result := m.collect(materialized)
	if !report.empty() {
		log.Warn(log.CatSerial, "graph reconstructed with failures",
			"failed", len(report.Failed), "dangling", len(report.Dangling))
		return result, report
	}
	return result, nil
}

// materialize runs phase 1 and returns the unique suffixes successfully
// brought to life, in input order.
func (m *Manager) materialize(ctx context.Context, records []Record, report *Report) ([]string, error) {
	_, span := m.tracer.Start(ctx, tracing.SpanMaterialize,
		trace.WithAttributes(attribute.Int(tracing.AttrRecordCount, len(records))))
	defer span.End()

	skipped := make(map[ident.ID]struct{})
	var alive []string

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return alive, fmt.Errorf("materialization cancelled: %w", err)
		}
		if _, skip := skipped[rec.ID]; skip {
			report.Failed = append(report.Failed, rec.ID)
			continue
		}

		unique, err := m.materializeRecord(rec)
		if err != nil {
			log.ErrorErr(log.CatSerial, "record failed to materialize", err, "id", rec.ID)
			report.Failed = append(report.Failed, rec.ID)
			skipSubtree(rec.ID, records, skipped)
			continue
		}
		alive = append(alive, unique)
	}
	return alive, nil
}

func (m *Manager) materializeRecord(rec Record) (string, error) {
	parts, err := ident.Parse(rec.ID)
	if err != nil {
		return "", err
	}
	if parts.Kind != rec.Kind {
		return "", fmt.Errorf("%w: record %s declares kind %s", registry.ErrTypeMismatch, rec.ID, rec.Kind)
	}

	// Reuse a live component carrying the same suffix, but only when the
	// kinds agree; a colliding suffix of another kind must not have the
	// record's properties applied to it.
	if liveID, ok := m.reg.ResolveUnique(parts.Unique); ok {
		liveKind, err := ident.KindOf(liveID)
		if err != nil {
			return "", err
		}
		if liveKind != rec.Kind {
			return "", fmt.Errorf("%w: suffix of %s is live as %s", registry.ErrTypeMismatch, rec.ID, liveID)
		}
		component, err := m.reg.Get(liveID)
		if err != nil {
			return "", err
		}
		return parts.Unique, applyProperties(component, rec.Properties)
	}

	component, err := m.factories.New(rec.Kind)
	if err != nil {
		return "", err
	}
	if err := applyProperties(component, rec.Properties); err != nil {
		return "", err
	}

	// Registered parentless; phase 2 attaches the parent.
	bare := ident.Build(rec.Kind, parts.Unique, "", "")
	if _, err := m.reg.Register(component, rec.Kind, registry.WithExplicitID(bare)); err != nil {
		return "", err
	}
	return parts.Unique, nil
}

// wire runs phase 2 over the materialized records.
func (m *Manager) wire(ctx context.Context, records []Record, alive []string, report *Report) error {
	_, span := m.tracer.Start(ctx, tracing.SpanWire)
	defer span.End()

	aliveSet := make(map[string]struct{}, len(alive))
	for _, unique := range alive {
		aliveSet[unique] = struct{}{}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("wiring cancelled: %w", err)
		}
		parts, err := ident.Parse(rec.ID)
		if err != nil {
			continue // already reported in phase 1
		}
		if _, ok := aliveSet[parts.Unique]; !ok {
			continue
		}
		m.wireRecord(rec, parts, report)
	}
	return nil
}

func (m *Manager) wireRecord(rec Record, parts *ident.Parts, report *Report) {
	selfID, ok := m.reg.ResolveUnique(parts.Unique)
	if !ok {
		return
	}

	var opts []registry.Option
	if rec.Relationships.ParentID != "" {
		parentID, ok := m.resolveRef(rec.Relationships.ParentID)
		if !ok {
			report.Dangling = append(report.Dangling, DanglingReference{
				RecordID: rec.ID, RefID: rec.Relationships.ParentID, Field: "parent",
			})
		} else {
			opts = append(opts, registry.WithParent(parentID))
		}
	}
	if parts.Location != "" {
		opts = append(opts, registry.WithLocation(parts.Location))
	}
	if len(opts) > 0 {
		if newID, err := m.reg.Update(selfID, opts...); err != nil {
			report.Wiring = append(report.Wiring, fmt.Errorf("wire %s: %w", rec.ID, err))
		} else {
			selfID = newID
		}
	}

	for _, ref := range rec.Relationships.Bindings {
		controllerID, ok := m.resolveRef(ref.ControllerID)
		if !ok {
			report.Dangling = append(report.Dangling, DanglingReference{
				RecordID: rec.ID, RefID: ref.ControllerID, Field: "binding.controller",
			})
			continue
		}
		if m.bindingExists(controllerID, ref, selfID) {
			continue
		}
		if err := m.reg.Bind(controllerID, ref.ControllerProperty, selfID, ref.Property); err != nil {
			report.Wiring = append(report.Wiring, fmt.Errorf("bind %s.%s: %w", rec.ID, ref.Property, err))
		}
	}
}

// resolveRef resolves a recorded identifier to the current live one via
// its unique suffix.
func (m *Manager) resolveRef(ref ident.ID) (ident.ID, bool) {
	parts, err := ident.Parse(ref)
	if err != nil {
		return "", false
	}
	return m.reg.ResolveUnique(parts.Unique)
}

// bindingExists makes re-wiring a reused component idempotent.
func (m *Manager) bindingExists(controllerID ident.ID, ref BindingRef, observableID ident.ID) bool {
	for _, b := range m.reg.BindingsFor(observableID) {
		if b.ControllerID == controllerID && b.ControllerProperty == ref.ControllerProperty &&
			b.ObservableID == observableID && b.ObservableProperty == ref.Property {
			return true
		}
	}
	return false
}

func (m *Manager) collect(alive []string) map[ident.ID]registry.Component {
	result := make(map[ident.ID]registry.Component, len(alive))
	for _, unique := range alive {
		id, ok := m.reg.ResolveUnique(unique)
		if !ok {
			continue
		}
		if component, err := m.reg.Get(id); err == nil {
			result[id] = component
		}
	}
	return result
}

func applyProperties(component registry.Component, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	applier, ok := component.(propertyApplier)
	if !ok {
		return fmt.Errorf("component cannot take %d recorded properties", len(values))
	}
	return applier.ApplyProperties(values)
}

// skipSubtree marks every record whose parent chain reaches failedID.
func skipSubtree(failedID ident.ID, records []Record, skipped map[ident.ID]struct{}) {
	failedUniques := map[string]struct{}{}
	if parts, err := ident.Parse(failedID); err == nil {
		failedUniques[parts.Unique] = struct{}{}
	}

	// Children may appear before or after their parent, so iterate until
	// the frontier stops growing.
	for {
		grew := false
		for _, rec := range records {
			if _, done := skipped[rec.ID]; done || rec.ID == failedID {
				continue
			}
			if rec.Relationships.ParentID == "" {
				continue
			}
			parentParts, err := ident.Parse(rec.Relationships.ParentID)
			if err != nil {
				continue
			}
			if _, dead := failedUniques[parentParts.Unique]; !dead {
				continue
			}
			skipped[rec.ID] = struct{}{}
			if parts, err := ident.Parse(rec.ID); err == nil {
				failedUniques[parts.Unique] = struct{}{}
			}
			grew = true
		}
		if !grew {
			return
		}
	}
}
