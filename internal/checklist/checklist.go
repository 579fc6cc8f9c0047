package checklist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robertguss/steershaft-checklist/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultName is the name of the built-in checklist
const DefaultName = "default"

// ErrInvalid is returned when a definition fails validation
var ErrInvalid = errors.New("invalid checklist")

// StepDefinition defines a single inspection step
type StepDefinition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Definition is an ordered set of inspection steps
type Definition struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Version     string            `yaml:"version,omitempty"`
	Steps       []*StepDefinition `yaml:"steps"`
}

// DomainSteps converts the definition into session steps
func (d *Definition) DomainSteps() []domain.Step {
	steps := make([]domain.Step, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, domain.Step{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
		})
	}
	return steps
}

// Validate checks that the definition has at least one step and that every
// step has a unique id and a name.
func (d *Definition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w %q: no steps", ErrInvalid, d.Name)
	}
	seen := make(map[string]bool, len(d.Steps))
	for i, s := range d.Steps {
		if s == nil {
			return fmt.Errorf("%w %q: step %d is empty", ErrInvalid, d.Name, i+1)
		}
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("%w %q: step %d has no id", ErrInvalid, d.Name, i+1)
		}
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w %q: step %s has no name", ErrInvalid, d.Name, id)
		}
		if seen[id] {
			return fmt.Errorf("%w %q: duplicate step id %s", ErrInvalid, d.Name, id)
		}
		seen[id] = true
	}
	return nil
}

// Store manages checklist definitions
type Store struct {
	dir        string
	checklists map[string]*Definition
}

// NewStore creates a store reading from <dataDir>/checklists
func NewStore(dataDir string) *Store {
	return &Store{
		dir:        filepath.Join(dataDir, "checklists"),
		checklists: make(map[string]*Definition),
	}
}

// Dir returns the directory definitions are read from
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path a named definition is stored at
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// Load loads the built-in default plus every valid *.yaml in the store
// directory. Invalid files are skipped.
func (s *Store) Load() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checklist directory: %w", err)
	}

	s.checklists[DefaultName] = Default()

	files, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list checklists: %w", err)
	}

	for _, file := range files {
		def, err := LoadFile(file)
		if err != nil {
			continue
		}
		s.checklists[def.Name] = def
	}

	return nil
}

// LoadFile reads and validates a single definition. The file name (without
// extension) is used when the definition has no name.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// Reload re-reads a named definition from disk and replaces it in the store
func (s *Store) Reload(name string) (*Definition, error) {
	if name == DefaultName {
		if _, err := os.Stat(s.Path(name)); errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
	}
	def, err := LoadFile(s.Path(name))
	if err != nil {
		return nil, err
	}
	s.checklists[def.Name] = def
	return def, nil
}

// validateName rejects names that would escape the store directory
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("checklist name cannot be empty")
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("checklist name contains invalid characters: must not contain /, \\, or ..")
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("checklist name cannot start with a dot")
	}
	return nil
}

// Save validates and writes a definition to disk
func (s *Store) Save(def *Definition) error {
	if err := validateName(def.Name); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checklist directory: %w", err)
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal checklist: %w", err)
	}

	if err := os.WriteFile(s.Path(def.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write checklist: %w", err)
	}

	s.checklists[def.Name] = def
	return nil
}

// Delete removes a definition from disk. The built-in default cannot be
// deleted.
func (s *Store) Delete(name string) error {
	if name == DefaultName {
		return fmt.Errorf("cannot delete default checklist")
	}
	if err := validateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checklist: %w", err)
	}
	delete(s.checklists, name)
	return nil
}

// Get returns a definition by name
func (s *Store) Get(name string) (*Definition, bool) {
	d, ok := s.checklists[name]
	return d, ok
}

// List returns all definition names, sorted
func (s *Store) List() []string {
	names := make([]string, 0, len(s.checklists))
	for name := range s.checklists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in steershaft checklist
func Default() *Definition {
	return &Definition{
		Name:        DefaultName,
		Description: "Steershaft final inspection",
		Version:     "1.0",
		Steps: []*StepDefinition{
			{ID: "BOM", Name: "Correct parts supplied (BOM)"},
			{ID: "T1", Name: "Tube cut length T1 within spec"},
			{ID: "T2", Name: "Tube cut length T2 within spec"},
			{ID: "PHASE", Name: "Phase angle within spec"},
			{ID: "WELD_VIS", Name: "Weld visual OK"},
			{ID: "TORQUE", Name: "Torque test OK"},
		},
	}
}
