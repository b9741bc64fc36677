package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/rules"
)

const (
	DefaultRule        = "Aether"
	DefaultDim         = 2
	DefaultInitial     = 10000
	DefaultBackupEvery = 1000
	DefaultLogEvery    = 100
	DefaultPageBudget  = 64 << 20
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Rule          string       `yaml:"rule" json:"rule"`
	Dim           int          `yaml:"dim" json:"dim"`
	Initial       int64        `yaml:"initial" json:"initial"`
	Background    int64        `yaml:"background" json:"background"`
	EnclosedSide  int          `yaml:"enclosed_side" json:"enclosed_side"`
	Steps         uint64       `yaml:"steps" json:"steps"`
	UntilStable   bool         `yaml:"until_stable" json:"until_stable"`
	TrackToppling bool         `yaml:"track_toppling" json:"track_toppling"`
	BackupEvery   uint64       `yaml:"backup_every" json:"backup_every"`
	LogEvery      uint64       `yaml:"log_every" json:"log_every"`
	Paging        PagingConfig `yaml:"paging" json:"paging"`
}

// PagingConfig selects a spilling store. An empty Backing keeps every
// shell in memory.
type PagingConfig struct {
	Backing string `yaml:"backing" json:"backing"`
	Budget  int64  `yaml:"budget" json:"budget"`
	Dir     string `yaml:"dir" json:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Rule:        DefaultRule,
		Dim:         DefaultDim,
		Initial:     DefaultInitial,
		UntilStable: true,
		BackupEvery: DefaultBackupEvery,
		LogEvery:    DefaultLogEvery,
		Paging: PagingConfig{
			Budget: DefaultPageBudget,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadOnto overlays the YAML file at path onto cfg without validating.
func LoadOnto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Overlay(cfg, data)
}

// Overlay decodes YAML onto cfg. Keys missing from data keep their
// current values.
func Overlay(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Parse overlays YAML onto DefaultConfig and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(cfg, data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

//go:embed config.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Validate checks the config against the embedded schema and the rule
// registry.
func (c *Config) Validate() error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	rule, err := rules.Lookup(c.Rule)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Background != 0 {
		if br, ok := rule.(rules.BackgroundRule); !ok || !br.SupportsBackground() {
			return fmt.Errorf("%w: %s has no background value", ErrInvalid, rule.Name())
		}
	}
	if c.Steps == 0 && !c.UntilStable {
		return fmt.Errorf("%w: steps must be set unless until_stable", ErrInvalid)
	}
	if c.Paging.Backing != "" && c.Paging.Budget <= 0 {
		return fmt.Errorf("%w: paging needs a positive budget", ErrInvalid)
	}
	return nil
}

// Options translates the lattice settings into automaton options.
func (c *Config) Options() []automaton.Option {
	var opts []automaton.Option
	if c.Background != 0 {
		opts = append(opts, automaton.WithBackground(c.Background))
	}
	if c.EnclosedSide > 0 {
		opts = append(opts, automaton.WithEnclosedSide(c.EnclosedSide))
	}
	if c.TrackToppling {
		opts = append(opts, automaton.WithToppleTracking())
	}
	return opts
}

// Build constructs the automaton described by the config. Extra options
// are applied after the config's own.
func (c *Config) Build(extra ...automaton.Option) (*automaton.Automaton, error) {
	rule, err := rules.Lookup(c.Rule)
	if err != nil {
		return nil, err
	}
	return automaton.New(rule, c.Dim, c.Initial, append(c.Options(), extra...)...)
}

func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %dD initial=%d", c.Rule, c.Dim, c.Initial)
	if c.Background != 0 {
		fmt.Fprintf(&b, " background=%d", c.Background)
	}
	if c.EnclosedSide > 0 {
		fmt.Fprintf(&b, " enclosed=%d", c.EnclosedSide)
	}
	return b.String()
}
