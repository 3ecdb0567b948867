package pipeline

import (
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/etlkit/errors"
)

// ComponentDef declares one component of a pipeline definition: a
// registered type name plus adapter-specific options.
type ComponentDef struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Definition declares a pipeline in configuration: one source, an
// ordered transform chain, and one sink.
//
//	name: orders
//	source:
//	  type: csv
//	  options:
//	    path: ./orders.csv
//	transforms:
//	  - type: project
//	    options:
//	      fields: [id, total]
//	sink:
//	  type: jsonlines
//	  options:
//	    path: ./orders.jsonl
type Definition struct {
	Name       string         `yaml:"name"`
	Source     ComponentDef   `yaml:"source"`
	Transforms []ComponentDef `yaml:"transforms,omitempty"`
	Sink       ComponentDef   `yaml:"sink"`
}

// Validate checks the structural completeness of the definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return errors.Config("pipeline definition requires a name")
	}
	if d.Source.Type == "" {
		return errors.Newf(errors.KindConfig, "pipeline %q: source.type is required", d.Name)
	}
	if d.Sink.Type == "" {
		return errors.Newf(errors.KindConfig, "pipeline %q: sink.type is required", d.Name)
	}
	for i, tr := range d.Transforms {
		if tr.Type == "" {
			return errors.Newf(errors.KindConfig, "pipeline %q: transforms[%d].type is required", d.Name, i)
		}
	}
	return nil
}

// ParseDefinition decodes a YAML pipeline definition and validates it.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Serialization("parsing pipeline definition").WithCause(err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// DefinitionLoader loads pipeline definitions by name.
type DefinitionLoader interface {
	Load(name string) (*Definition, error)
}

// FileDefinitionLoader loads definitions from YAML files on disk.
type FileDefinitionLoader struct {
	dirs []string
}

// NewFileDefinitionLoader creates a loader that searches the given
// directories for pipeline YAML files.
func NewFileDefinitionLoader(dirs ...string) *FileDefinitionLoader {
	return &FileDefinitionLoader{dirs: dirs}
}

// Load searches for {name}.yaml or {name}.yml across the configured
// directories and parses the first match.
func (l *FileDefinitionLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return LoadDefinitionFile(path)
		}
	}
	return nil, errors.Newf(errors.KindConfig, "pipeline definition %q not found in %v", name, l.dirs)
}

// LoadDefinitionFile parses a pipeline definition from an explicit path.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO("reading pipeline definition").
			WithCause(err).
			WithDetail("path", path)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		if pe, ok := errors.AsPipelineError(err); ok {
			return nil, pe.WithDetail("path", path)
		}
		return nil, err
	}
	return def, nil
}

// Build resolves a definition against the default registries and
// assembles a runnable pipeline. Extra options are appended after
// WithName(def.Name), so callers can still override the name.
func Build(def *Definition, opts ...Option) (*Pipeline, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	src, err := NewSource(def.Source.Type, def.Source.Options)
	if err != nil {
		return nil, err
	}

	var trs []Transform
	for _, td := range def.Transforms {
		tr, err := NewTransform(td.Type, td.Options)
		if err != nil {
			return nil, err
		}
		trs = append(trs, tr)
	}

	snk, err := NewSink(def.Sink.Type, def.Sink.Options)
	if err != nil {
		return nil, err
	}

	return New(src, trs, snk, append([]Option{WithName(def.Name)}, opts...)...), nil
}

// DecodeOptions maps a loader options map onto a typed adapter config
// struct using mapstructure tags. Strings are weakly converted to
// numeric and boolean fields, matching YAML's loose typing.
func DecodeOptions(options map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Config("building options decoder").WithCause(err)
	}
	if err := dec.Decode(options); err != nil {
		return errors.Config("decoding component options").WithCause(err)
	}
	return nil
}
