// Package questcfg reads and writes a quest's rqst.toml configuration: the
// chapter list, the quest title and author, and the handful of optional
// extras (read-only paths, a final-screen payload) that ride along with it.
package questcfg

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/repoquest/rqst/internal/stage"
)

// Config is the decoded form of rqst.toml. Wire keys are kebab-case.
type Config struct {
	// Title is the quest's display name.
	Title string `toml:"title"`

	// Author is the upstream repository owner, used to build clone URLs
	// and to attribute reference solutions.
	Author string `toml:"author"`

	// Repo is the upstream repository name.
	Repo string `toml:"repo"`

	// Stages is the ordered chapter list. Order is significant: it is the
	// quest's progression order, not just a label index.
	Stages []stage.Chapter `toml:"stages"`

	// ReadOnly lists paths the learner should not be expected to edit;
	// surfaced to the hosted UI, not enforced by the engine itself.
	ReadOnly []string `toml:"read-only,omitempty"`

	// Final is an opaque payload shown on quest completion, passed through
	// to the UI without interpretation.
	Final map[string]any `toml:"final,omitempty"`
}

// Chapters builds the stage.List implied by Config, validating label
// uniqueness.
func (c *Config) Chapters() (*stage.List, error) {
	return stage.NewList(c.Stages)
}

// Decode parses TOML quest configuration from raw bytes.
func Decode(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, "questcfg: decode rqst.toml")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and decodes a quest configuration from a file on disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "questcfg: read rqst.toml")
	}
	return Decode(data)
}

// Encode renders Config back to its TOML wire form.
func (c *Config) Encode() ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, errors.Wrap(err, "questcfg: encode rqst.toml")
	}
	return buf.Bytes(), nil
}

// Save encodes and writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "questcfg: write rqst.toml")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Title == "" {
		return errors.New("questcfg: title is required")
	}
	if c.Author == "" {
		return errors.New("questcfg: author is required")
	}
	if c.Repo == "" {
		return errors.New("questcfg: repo is required")
	}
	if len(c.Stages) == 0 {
		return errors.New("questcfg: at least one stage is required")
	}
	if _, err := stage.NewList(c.Stages); err != nil {
		return errors.Wrap(err, "questcfg: validate stages")
	}
	return nil
}
