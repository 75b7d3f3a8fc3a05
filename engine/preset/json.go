package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cwbudde/algo-soundgraph/dsp/ident"
	"github.com/cwbudde/algo-soundgraph/dsp/node"
)

type presetJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Version     string          `json:"version"`
	Author      string          `json:"author"`
	Parameters  []parameterJSON `json:"parameters"`
	Patches     []patchJSON     `json:"patches"`
}

type parameterJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Type         string   `json:"type,omitempty"`
	DefaultValue string   `json:"defaultValue"`
	Min          *float32 `json:"min,omitempty"`
	Max          *float32 `json:"max,omitempty"`
	Units        string   `json:"units"`
	Automatable  bool     `json:"automatable"`
}

type patchJSON struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Timestamp   float64           `json:"timestamp"`
	Parameters  map[string]string `json:"parameters"`
}

// MarshalJSON encodes the preset. Values are written as strings.
func (p *Preset) MarshalJSON() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	doc := presetJSON{
		Name:        p.Name,
		Description: p.Description,
		Version:     p.Version,
		Author:      p.Author,
		Parameters:  make([]parameterJSON, 0, len(p.order)),
		Patches:     make([]patchJSON, 0, len(p.patches)),
	}

	for _, id := range p.order {
		d := p.descriptors[id]
		pj := parameterJSON{
			ID:           id.String(),
			Name:         d.Name,
			DisplayName:  d.DisplayName,
			Description:  d.Description,
			Type:         d.Kind().String(),
			DefaultValue: d.Default.String(),
			Units:        d.Units,
			Automatable:  d.Automatable,
		}

		if d.Min != 0 || d.Max != 0 {
			lo, hi := d.Min, d.Max
			pj.Min, pj.Max = &lo, &hi
		}

		doc.Parameters = append(doc.Parameters, pj)
	}

	for _, name := range p.patchNamesLocked() {
		patch := p.patches[name]
		pj := patchJSON{
			Name:        patch.Name,
			Description: patch.Description,
			Timestamp:   patch.Timestamp,
			Parameters:  make(map[string]string, len(patch.Values)),
		}

		for id, v := range patch.Values {
			pj.Parameters[id.String()] = v.String()
		}

		doc.Patches = append(doc.Patches, pj)
	}

	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalJSON replaces the preset's contents with the decoded document.
// Patch values for parameters without a descriptor are dropped.
func (p *Preset) UnmarshalJSON(data []byte) error {
	var doc presetJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("preset: decode: %w", err)
	}

	descriptors := make(map[ident.ID]Descriptor, len(doc.Parameters))
	order := make([]ident.ID, 0, len(doc.Parameters))

	for _, pj := range doc.Parameters {
		d, err := pj.descriptor()
		if err != nil {
			return err
		}

		if _, dup := descriptors[d.ID]; !dup {
			order = append(order, d.ID)
		}

		descriptors[d.ID] = d
	}

	patches := make(map[string]*Patch, len(doc.Patches))

	for _, pj := range doc.Patches {
		patch := &Patch{
			Name:        pj.Name,
			Description: pj.Description,
			Timestamp:   pj.Timestamp,
			Values:      make(map[ident.ID]node.Value, len(pj.Parameters)),
		}

		for key, raw := range pj.Parameters {
			id := ident.New(key)

			d, ok := descriptors[id]
			if !ok {
				continue
			}

			v, err := node.ParseValue(d.Kind(), raw)
			if err != nil {
				return fmt.Errorf("preset: patch %q: %s: %w", pj.Name, key, err)
			}

			patch.Values[id] = v
		}

		patches[patch.Name] = patch
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.Name = doc.Name
	p.Description = doc.Description
	p.Version = doc.Version
	p.Author = doc.Author
	p.descriptors = descriptors
	p.order = order
	p.patches = patches

	if p.now == nil {
		p.now = time.Now
	}

	return nil
}

func (pj parameterJSON) descriptor() (Descriptor, error) {
	key := pj.ID
	if key == "" {
		key = pj.Name
	}

	if key == "" {
		return Descriptor{}, fmt.Errorf("%w: parameter without id", ErrUnknownParameter)
	}

	kind := node.KindFloat
	if pj.Type != "" {
		k, err := node.ParseKind(pj.Type)
		if err != nil {
			return Descriptor{}, fmt.Errorf("preset: parameter %s: %w", key, err)
		}

		kind = k
	}

	def := node.Float(0).Convert(kind)
	if pj.DefaultValue != "" {
		v, err := node.ParseValue(kind, pj.DefaultValue)
		if err != nil {
			return Descriptor{}, fmt.Errorf("preset: parameter %s: %w", key, err)
		}

		def = v
	}

	d := Descriptor{
		ID:          ident.New(key),
		Name:        pj.Name,
		DisplayName: pj.DisplayName,
		Description: pj.Description,
		Default:     def,
		Units:       pj.Units,
		Automatable: pj.Automatable,
	}

	if d.Name == "" {
		d.Name = key
	}

	if pj.Min != nil {
		d.Min = *pj.Min
	}

	if pj.Max != nil {
		d.Max = *pj.Max
	}

	return d, nil
}

func (p *Preset) patchNamesLocked() []string {
	names := make([]string, 0, len(p.patches))
	for name := range p.patches {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Load reads a preset file.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: read: %w", err)
	}

	p := New("")
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	return p, nil
}

// Save writes the preset to path.
func (p *Preset) Save(path string) error {
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("preset: encode: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("preset: write: %w", err)
	}

	return nil
}
