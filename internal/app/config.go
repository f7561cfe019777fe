package app

import (
	"errors"
	"time"
)

// Config holds everything an App instance needs to run.
type Config struct {
	LayerPath    string // layer-structure file (.json or .hcl)
	TemplatePath string // template file (.json or .hcl)

	// MergeTemplates overlays the loaded templates onto any already in the
	// store instead of replacing them.
	MergeTemplates bool
	// StrictDataflow additionally runs the symbolic data-flow validation at
	// load time.
	StrictDataflow bool

	LogFormat string
	LogLevel  string

	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewConfig validates the required fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LayerPath == "" {
		return nil, errors.New("LayerPath is a required configuration field and cannot be empty")
	}
	if cfg.TemplatePath == "" {
		return nil, errors.New("TemplatePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
