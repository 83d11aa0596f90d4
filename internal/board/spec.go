// Package board holds the routing board: the item arena, contact and trace
// tail bookkeeping, clearance checks and outline presets for bus cards.
package board

import (
	"os"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/maruel/natural"
	"gopkg.in/yaml.v3"
)

// Edge specifies which edge of the board.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// DefaultContactHeight is used when a spec leaves the contact length open.
const DefaultContactHeight = 0.3

// ContactSpec defines the edge contact configuration.
type ContactSpec struct {
	Edge         Edge    `yaml:"edge"`          // Which edge has contacts
	Count        int     `yaml:"count"`         // Number of contacts per side
	PitchInches  float64 `yaml:"pitch_inches"`  // Center-to-center spacing
	WidthInches  float64 `yaml:"width_inches"`  // Individual contact width
	HeightInches float64 `yaml:"height_inches"` // Contact length into board
	MarginInches float64 `yaml:"margin_inches"` // Distance from board corner to first contact center
}

// TotalWidthInches returns the total width of all contacts.
func (c *ContactSpec) TotalWidthInches() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.Count-1)*c.PitchInches + c.WidthInches
}

// Height returns the contact length, falling back to DefaultContactHeight.
func (c *ContactSpec) Height() float64 {
	if c.HeightInches > 0 {
		return c.HeightInches
	}
	return DefaultContactHeight
}

// HoleSpec defines a mounting or ejector hole, measured from the left and
// the contact edge.
type HoleSpec struct {
	XInches    float64 `yaml:"x_inches"`
	YInches    float64 `yaml:"y_inches"`
	DiamInches float64 `yaml:"diam_inches"`
	Name       string  `yaml:"name"`
}

// Spec defines a board outline with its edge connector.
type Spec interface {
	Name() string
	Dimensions() (widthInches, heightInches float64)
	ContactSpec() *ContactSpec
	Holes() []HoleSpec
	// SignalName returns the signal of a connector pin, numbered from 1 on
	// the component side and continuing on the solder side.
	SignalName(pin int) string
	Validate() error
}

// BaseSpec provides a common implementation of Spec.
type BaseSpec struct {
	SpecName     string         `yaml:"name"`
	WidthInches  float64        `yaml:"width_inches"`
	HeightInches float64        `yaml:"height_inches"`
	Contacts     *ContactSpec   `yaml:"contacts,omitempty"`
	MountHoles   []HoleSpec     `yaml:"holes,omitempty"`
	Signals      map[int]string `yaml:"signals,omitempty"`
}

func (s *BaseSpec) Name() string {
	return s.SpecName
}

func (s *BaseSpec) Dimensions() (widthInches, heightInches float64) {
	return s.WidthInches, s.HeightInches
}

func (s *BaseSpec) ContactSpec() *ContactSpec {
	return s.Contacts
}

func (s *BaseSpec) Holes() []HoleSpec {
	return s.MountHoles
}

// SignalName returns the configured signal or a generic "P<n>" name.
func (s *BaseSpec) SignalName(pin int) string {
	if name, ok := s.Signals[pin]; ok {
		return name
	}
	return "P" + strconv.Itoa(pin)
}

func (s *BaseSpec) Validate() error {
	if s.SpecName == "" {
		return errors.New("board spec name is required")
	}
	if s.WidthInches <= 0 || s.HeightInches <= 0 {
		return errors.Newf("board %q: dimensions must be positive", s.SpecName)
	}
	if s.Contacts != nil {
		if s.Contacts.Count <= 0 {
			return errors.Newf("board %q: contact count must be positive", s.SpecName)
		}
		if s.Contacts.PitchInches <= 0 {
			return errors.Newf("board %q: contact pitch must be positive", s.SpecName)
		}
		if s.Contacts.WidthInches <= 0 || s.Contacts.WidthInches >= s.Contacts.PitchInches {
			return errors.Newf("board %q: contact width must be positive and below the pitch", s.SpecName)
		}
	}
	return nil
}

// SaveToFile saves the spec to a YAML file.
func (s *BaseSpec) SaveToFile(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode board spec")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write board spec")
}

// LoadFromFile loads a spec from a YAML file.
func LoadFromFile(path string) (*BaseSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read board spec")
	}

	var spec BaseSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrapf(err, "parse board spec %s", path)
	}

	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid board spec")
	}

	return &spec, nil
}

// Registry of known board specs
var registry = make(map[string]Spec)

// Register adds a board spec to the registry.
func Register(spec Spec) {
	registry[spec.Name()] = spec
}

// GetSpec returns a board spec by name.
func GetSpec(name string) Spec {
	if spec, ok := registry[name]; ok {
		return spec
	}
	return nil
}

// ListSpecs returns all registered board spec names in natural order.
func ListSpecs() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

func init() {
	Register(S100Spec())
	Register(ISA8Spec())
	Register(ISA16Spec())
	Register(MultibusP1Spec())
	Register(MultibusP1P2Spec())
	Register(ECBSpec())
	Register(STDBusSpec())
}
