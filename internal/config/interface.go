package config

import "context"

// Loader is the interface for a format-specific configuration loader. It
// parses a layer-structure file and a template file into the data model,
// enforcing required-field presence. Cross-file consistency is the
// validator's job, not the loader's.
type Loader interface {
	Load(ctx context.Context, layerPath, templatePath string) (*Model, error)
}
