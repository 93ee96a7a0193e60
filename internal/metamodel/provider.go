package metamodel

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"
)

//go:embed models/*.json
var embeddedModels embed.FS

// Catalog resolves an (app, type) pair to its schema.
// Implementations must be safe for concurrent readers.
type Catalog interface {
	TypeModel(app, typeName string) (*TypeModel, bool)
}

// appModels is the on-disk shape of one application's model file.
type appModels struct {
	App     string                `json:"app"`
	Version int                   `json:"version"`
	Types   map[string]*TypeModel `json:"types"`
}

// TypeModelProvider is a read-only Catalog built from JSON model files.
type TypeModelProvider struct {
	apps map[string]map[string]*TypeModel
}

// NewTypeModelProvider parses one JSON model file per application.
// Every type inherits the app's version; aggregation targets must resolve.
func NewTypeModelProvider(files ...[]byte) (*TypeModelProvider, error) {
	p := &TypeModelProvider{apps: make(map[string]map[string]*TypeModel)}

	for i, data := range files {
		var file appModels
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse model file %d: %w", i, err)
		}
		if file.App == "" {
			return nil, fmt.Errorf("model file %d: app is required", i)
		}
		if _, exists := p.apps[file.App]; exists {
			return nil, fmt.Errorf("model file %d: duplicate app %q", i, file.App)
		}

		types := make(map[string]*TypeModel, len(file.Types))
		for name, model := range file.Types {
			if model == nil {
				return nil, fmt.Errorf("%s/%s: empty model", file.App, name)
			}
			model.App = file.App
			model.Name = name
			model.Version = file.Version
			if model.Values == nil {
				model.Values = map[string]ModelValue{}
			}
			if model.Associations == nil {
				model.Associations = map[string]ModelAssociation{}
			}
			types[name] = model
		}
		p.apps[file.App] = types
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *TypeModelProvider) validate() error {
	for _, types := range p.apps {
		for _, model := range types {
			for _, name := range model.AssociationNames() {
				assoc := model.Associations[name]
				if assoc.Type != Aggregation {
					continue
				}
				ref := model.RefTypeRef(assoc)
				target, ok := p.TypeModel(ref.App, ref.Type)
				if !ok {
					return fmt.Errorf("%s.%s: unknown aggregate type %s", model.Ref(), name, ref)
				}
				if target.ElementType != Aggregated {
					return fmt.Errorf("%s.%s: %s is not an aggregated type", model.Ref(), name, ref)
				}
			}
		}
	}
	return nil
}

// TypeModel implements Catalog.
func (p *TypeModelProvider) TypeModel(app, typeName string) (*TypeModel, bool) {
	types, ok := p.apps[app]
	if !ok {
		return nil, false
	}
	model, ok := types[typeName]
	return model, ok
}

// Apps returns the applications known to the provider.
func (p *TypeModelProvider) Apps() []string {
	return sortedKeys(p.apps)
}

var defaultProvider = sync.OnceValues(func() (*TypeModelProvider, error) {
	entries, err := fs.Glob(embeddedModels, "models/*.json")
	if err != nil {
		return nil, err
	}
	files := make([][]byte, 0, len(entries))
	for _, name := range entries {
		data, err := embeddedModels.ReadFile(name)
		if err != nil {
			return nil, err
		}
		files = append(files, data)
	}
	return NewTypeModelProvider(files...)
})

// Default returns the catalog compiled into the binary.
func Default() *TypeModelProvider {
	p, err := defaultProvider()
	if err != nil {
		panic(fmt.Sprintf("metamodel: embedded catalog is invalid: %v", err))
	}
	return p
}
