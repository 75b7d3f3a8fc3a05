// Package preset stores named parameter patches for sound voices.
//
// A Preset owns parameter descriptors and patches. A patch only overrides
// parameters that have a descriptor: removing a descriptor purges the
// parameter from every patch. Presets are safe for concurrent use.
package preset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

var (
	// ErrUnknownPatch is returned for patch names the preset does not hold.
	ErrUnknownPatch = errors.New("preset: unknown patch")
	// ErrUnknownParameter is returned for parameters without a descriptor.
	ErrUnknownParameter = errors.New("preset: unknown parameter")
	// ErrPatchExists is returned when a patch name is already taken.
	ErrPatchExists = errors.New("preset: patch exists")
)

// Descriptor describes one parameter a preset may override.
type Descriptor struct {
	ID          ident.ID
	Name        string
	DisplayName string
	Description string
	Default     node.Value
	Min         float32
	Max         float32
	Units       string
	Automatable bool
}

// Kind returns the parameter kind, taken from the default value.
func (d Descriptor) Kind() node.Kind { return d.Default.Kind() }

// Patch is a named set of parameter overrides.
type Patch struct {
	Name        string
	Description string
	// Timestamp is the creation time in seconds since the Unix epoch.
	Timestamp float64
	Values    map[ident.ID]node.Value
}

// Value returns the override for id.
func (p *Patch) Value(id ident.ID) (node.Value, bool) {
	v, ok := p.Values[id]
	return v, ok
}

// IDs returns the overridden parameters in a stable order.
func (p *Patch) IDs() []ident.ID {
	return sortedIDs(p.Values)
}

func (p *Patch) clone() *Patch {
	c := *p
	c.Values = make(map[ident.ID]node.Value, len(p.Values))

	for id, v := range p.Values {
		c.Values[id] = v
	}

	return &c
}

// Target is anything whose parameters a patch can be captured from and
// applied to, such as a playing voice.
type Target interface {
	ParameterValue(id ident.ID) (node.Value, bool)
	SetParameterValue(id ident.ID, v node.Value) error
}

// BatchTarget is a Target that can take a whole patch in one call.
// ApplyPatch prefers it so related values land together.
type BatchTarget interface {
	Target
	SetParameterValues(values map[ident.ID]node.Value) error
}

// Preset is a named collection of parameter descriptors and patches.
type Preset struct {
	Name        string
	Description string
	Version     string
	Author      string

	mu          sync.RWMutex
	descriptors map[ident.ID]Descriptor
	order       []ident.ID
	patches     map[string]*Patch

	now func() time.Time
}

// New returns an empty preset.
func New(name string) *Preset {
	return &Preset{
		Name:        name,
		Version:     "1.0",
		descriptors: make(map[ident.ID]Descriptor),
		patches:     make(map[string]*Patch),
		now:         time.Now,
	}
}

// Register adds or replaces a parameter descriptor. ID defaults to the
// identifier of Name.
func (p *Preset) Register(d Descriptor) error {
	if d.ID == ident.Invalid {
		d.ID = ident.New(d.Name)
	}

	if d.ID == ident.Invalid {
		return fmt.Errorf("%w: descriptor without name", ErrUnknownParameter)
	}

	if d.Name == "" {
		d.Name = d.ID.String()
	}

	if d.DisplayName == "" {
		d.DisplayName = d.Name
	}

	if !d.Default.IsValid() {
		d.Default = node.Float(0)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.descriptors[d.ID]; !ok {
		p.order = append(p.order, d.ID)
	}

	p.descriptors[d.ID] = d

	return nil
}

// Unregister removes the descriptor for id and purges id from every patch.
func (p *Preset) Unregister(id ident.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.descriptors[id]; !ok {
		return false
	}

	delete(p.descriptors, id)

	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}

	for _, patch := range p.patches {
		delete(patch.Values, id)
	}

	return true
}

// Descriptor returns the descriptor for id.
func (p *Preset) Descriptor(id ident.ID) (Descriptor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	d, ok := p.descriptors[id]

	return d, ok
}

// Descriptors returns all descriptors in registration order.
func (p *Preset) Descriptors() []Descriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Descriptor, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.descriptors[id])
	}

	return out
}

// CreatePatch adds an empty patch.
func (p *Preset) CreatePatch(name, description string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.addPatch(&Patch{Name: name, Description: description})

	return err
}

func (p *Preset) addPatch(patch *Patch) (*Patch, error) {
	if patch.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownPatch)
	}

	if _, ok := p.patches[patch.Name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrPatchExists, patch.Name)
	}

	if patch.Values == nil {
		patch.Values = make(map[ident.ID]node.Value)
	}

	if patch.Timestamp == 0 {
		patch.Timestamp = float64(p.now().UnixNano()) / 1e9
	}

	p.patches[patch.Name] = patch

	return patch, nil
}

// DeletePatch removes a patch.
func (p *Preset) DeletePatch(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.patches[name]
	delete(p.patches, name)

	return ok
}

// Patch returns a copy of the named patch.
func (p *Preset) Patch(name string) (*Patch, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	patch, ok := p.patches[name]
	if !ok {
		return nil, false
	}

	return patch.clone(), true
}

// PatchNames returns the patch names, sorted.
func (p *Preset) PatchNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.patchNamesLocked()
}

// SetPatchValue stores an override, converted to the descriptor's kind.
func (p *Preset) SetPatchValue(patch string, id ident.ID, v node.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	target, ok := p.patches[patch]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPatch, patch)
	}

	d, ok := p.descriptors[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, id)
	}

	target.Values[id] = v.Convert(d.Kind())

	return nil
}

// CaptureStateToPatch records the current value of every registered
// parameter the target reports into the named patch, creating it if needed.
func (p *Preset) CaptureStateToPatch(name string, t Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	patch, ok := p.patches[name]
	if !ok {
		var err error
		if patch, err = p.addPatch(&Patch{Name: name}); err != nil {
			return err
		}
	}

	for _, id := range p.order {
		v, ok := t.ParameterValue(id)
		if !ok {
			continue
		}

		patch.Values[id] = v.Convert(p.descriptors[id].Kind())
	}

	return nil
}

// ApplyPatch writes every override of the named patch to t. A BatchTarget
// receives the whole patch in one call. Otherwise all overrides are
// attempted one by one and failures are joined into the returned error.
// Applying the same patch twice has the same effect as applying it once.
func (p *Preset) ApplyPatch(name string, t Target) error {
	p.mu.RLock()

	patch, ok := p.patches[name]
	if !ok {
		p.mu.RUnlock()
		return fmt.Errorf("%w: %q", ErrUnknownPatch, name)
	}

	patch = patch.clone()
	p.mu.RUnlock()

	if bt, ok := t.(BatchTarget); ok {
		if err := bt.SetParameterValues(patch.Values); err != nil {
			return fmt.Errorf("preset: apply %q: %w", name, err)
		}

		return nil
	}

	var errs []error

	for _, id := range patch.IDs() {
		if err := t.SetParameterValue(id, patch.Values[id]); err != nil {
			errs = append(errs, fmt.Errorf("preset: apply %s: %w", id, err))
		}
	}

	return errors.Join(errs...)
}

// InterpolatePatches stores a new patch holding the parameters present in
// both a and b. Numbers move linearly by t in [0, 1]; ints round to the
// nearest value; booleans switch from a to b at t >= 0.5.
func (p *Preset) InterpolatePatches(a, b string, t float64, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pa, ok := p.patches[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPatch, a)
	}

	pb, ok := p.patches[b]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPatch, b)
	}

	if math.IsNaN(t) {
		t = 0
	}

	t = min(max(t, 0), 1)

	out := &Patch{
		Name:        name,
		Description: fmt.Sprintf("%s -> %s at %.3g", a, b, t),
		Values:      make(map[ident.ID]node.Value),
	}

	for id, va := range pa.Values {
		vb, ok := pb.Values[id]
		if !ok {
			continue
		}

		out.Values[id] = Interpolate(va, vb, t)
	}

	_, err := p.addPatch(out)

	return err
}

// MergePatches stores a new patch holding every override of a and b;
// b wins where both set a parameter.
func (p *Preset) MergePatches(a, b, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pa, ok := p.patches[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPatch, a)
	}

	pb, ok := p.patches[b]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPatch, b)
	}

	out := pa.clone()
	out.Name = name
	out.Description = a + " + " + b
	out.Timestamp = 0

	for id, v := range pb.Values {
		out.Values[id] = v
	}

	_, err := p.addPatch(out)

	return err
}

// Interpolate blends two values of a's kind.
func Interpolate(a, b node.Value, t float64) node.Value {
	b = b.Convert(a.Kind())

	switch a.Kind() {
	case node.KindFloat:
		fa, fb := float64(a.Float()), float64(b.Float())
		return node.Float(float32(fa + (fb-fa)*t))
	case node.KindInt:
		fa, fb := float64(a.Int()), float64(b.Int())
		return node.Int(int32(math.Round(fa + (fb-fa)*t)))
	case node.KindBool:
		if t >= 0.5 {
			return b
		}

		return a
	default:
		return a
	}
}

func sortedIDs[V any](m map[ident.ID]V) []ident.ID {
	ids := make([]ident.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	return ids
}
