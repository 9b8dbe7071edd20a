package fixture

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Patch is the set of fixtures wired into the show, with every head
// assigned a stable numeric ID used as an assignment target.
type Patch struct {
	fixtures map[string]*Fixture
	order    []*Fixture
	heads    []*Head
}

func NewPatch() *Patch {
	return &Patch{fixtures: map[string]*Fixture{}}
}

// Add registers a fixture and assigns IDs to its heads. Fixture IDs must
// be unique within the patch.
func (p *Patch) Add(f *Fixture) error {
	if f.ID == "" {
		return fmt.Errorf("fixture: missing fixture id")
	}
	if p.fixtures[f.ID] != nil {
		return fmt.Errorf("fixture: duplicate fixture id %q", f.ID)
	}
	for _, h := range f.Heads {
		h.Fixture = f
		h.ID = len(p.heads)
		p.heads = append(p.heads, h)
	}
	p.fixtures[f.ID] = f
	p.order = append(p.order, f)
	return nil
}

func (p *Patch) Fixture(id string) *Fixture {
	return p.fixtures[id]
}

// Fixtures returns fixtures in patch order.
func (p *Patch) Fixtures() []*Fixture {
	return p.order
}

// Heads returns every head in the patch, indexed by head ID.
func (p *Patch) Heads() []*Head {
	return p.heads
}

func (p *Patch) Head(id int) *Head {
	if id < 0 || id >= len(p.heads) {
		return nil
	}
	return p.heads[id]
}

// Universes lists the distinct universes the patch writes to, ascending.
func (p *Patch) Universes() []int {
	seen := map[int]bool{}
	for _, h := range p.heads {
		seen[h.Universe] = true
	}
	var out []int
	for u := range seen {
		out = append(out, u)
	}
	sort.Ints(out)
	return out
}

// Profile maps human-readable function names to one-based channel
// numbers relative to a fixture's base address, following the YAML
// schema used for show configuration.
type Profile struct {
	Channels     map[string]int `yaml:"channels"`
	FineChannels map[string]int `yaml:"fine_channels,omitempty"`
	Pan          *AxisConfig    `yaml:"pan,omitempty"`
	Tilt         *AxisConfig    `yaml:"tilt,omitempty"`
}

// AxisConfig calibrates one movement axis in coarse DMX units.
type AxisConfig struct {
	Center     float64 `yaml:"center"`
	HalfCircle float64 `yaml:"half_circle"`
}

// PatchedFixture binds a fixture ID to a profile, a universe and a
// one-based base address, with optional placement.
type PatchedFixture struct {
	ID        string    `yaml:"id"`
	Profile   string    `yaml:"profile"`
	Universe  int       `yaml:"universe"`
	Base      int       `yaml:"base"`
	Position  []float64 `yaml:"position,omitempty"`
	RotationY float64   `yaml:"rotation_y_deg,omitempty"`
}

// Config is the root YAML document: named profiles plus the patch list.
type Config struct {
	Profiles map[string]Profile `yaml:"profiles"`
	Patch    []PatchedFixture   `yaml:"patch"`
}

// LoadPatch reads a YAML config file and builds the patch it describes.
func LoadPatch(path string) (*Patch, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePatch(buf)
}

func ParsePatch(buf []byte) (*Patch, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	patch := NewPatch()
	for _, pf := range cfg.Patch {
		profile, ok := cfg.Profiles[pf.Profile]
		if !ok {
			return nil, fmt.Errorf("fixture: %q uses unknown profile %q", pf.ID, pf.Profile)
		}
		f, err := buildFixture(pf, profile)
		if err != nil {
			return nil, err
		}
		if err := patch.Add(f); err != nil {
			return nil, err
		}
	}
	return patch, nil
}

func buildFixture(pf PatchedFixture, profile Profile) (*Fixture, error) {
	if pf.Base < 1 || pf.Base > 512 {
		return nil, fmt.Errorf("fixture: %q base address %d out of range", pf.ID, pf.Base)
	}
	head := &Head{
		Universe:     pf.Universe,
		Channels:     map[string]int{},
		FineChannels: map[string]int{},
		Rotation:     mgl64.QuatIdent(),
	}
	for name, ch := range profile.Channels {
		offset := pf.Base - 1 + ch - 1
		if offset < 0 || offset > 511 {
			return nil, fmt.Errorf("fixture: %q channel %q lands at offset %d, outside the universe", pf.ID, name, offset)
		}
		head.Channels[name] = offset
	}
	for name, ch := range profile.FineChannels {
		offset := pf.Base - 1 + ch - 1
		if offset < 0 || offset > 511 {
			return nil, fmt.Errorf("fixture: %q fine channel %q lands at offset %d, outside the universe", pf.ID, name, offset)
		}
		head.FineChannels[name] = offset
	}
	if profile.Pan != nil {
		head.PanCenter = profile.Pan.Center
		head.PanHalfCircle = profile.Pan.HalfCircle
	}
	if profile.Tilt != nil {
		head.TiltCenter = profile.Tilt.Center
		head.TiltHalfCircle = profile.Tilt.HalfCircle
	}
	if len(pf.Position) == 3 {
		head.Position = mgl64.Vec3{pf.Position[0], pf.Position[1], pf.Position[2]}
	}
	if pf.RotationY != 0 {
		head.Rotation = mgl64.QuatRotate(mgl64.DegToRad(pf.RotationY), mgl64.Vec3{0, 1, 0})
	}
	return &Fixture{ID: pf.ID, Heads: []*Head{head}}, nil
}
