package export

import "gddb/internal/project"

// ColumnExportProviderRegistry dispatches non-built-in column type ids to a
// registered pair of function pointers, the way an external
// ColumnExportProviderRegistry collaborator does: a plain map populated at
// pipeline construction, no dynamic dispatch over an open class hierarchy.
type ColumnExportProviderRegistry interface {
	TryCreateFieldDescriptor(col *project.Column, fieldName string) (*FieldDescriptor, bool)
	TryWriteField(col *project.Column, cell project.Cell, out []byte) (bool, error)
}

// FuncProviderRegistry is the concrete, map-based ColumnExportProviderRegistry
// implementation: one entry per custom column.Kind, each entry a pair of
// function pointers supplied by the caller at pipeline construction.
type FuncProviderRegistry struct {
	providers map[project.Kind]ColumnProvider
}

// ColumnProvider is the pair of hooks a custom column kind must supply.
type ColumnProvider struct {
	CreateFieldDescriptor func(col *project.Column, fieldName string) (*FieldDescriptor, bool)
	WriteField            func(col *project.Column, cell project.Cell, out []byte) (bool, error)
}

// NewProviderRegistry builds an empty registry; call Register for each
// custom column kind before running the pipeline.
func NewProviderRegistry() *FuncProviderRegistry {
	return &FuncProviderRegistry{providers: make(map[project.Kind]ColumnProvider)}
}

// Register installs the provider for kind, overwriting any prior entry.
func (r *FuncProviderRegistry) Register(kind project.Kind, p ColumnProvider) {
	r.providers[kind] = p
}

func (r *FuncProviderRegistry) TryCreateFieldDescriptor(col *project.Column, fieldName string) (*FieldDescriptor, bool) {
	p, ok := r.providers[col.Kind]
	if !ok || p.CreateFieldDescriptor == nil {
		return nil, false
	}
	return p.CreateFieldDescriptor(col, fieldName)
}

func (r *FuncProviderRegistry) TryWriteField(col *project.Column, cell project.Cell, out []byte) (bool, error) {
	p, ok := r.providers[col.Kind]
	if !ok || p.WriteField == nil {
		return false, nil
	}
	return p.WriteField(col, cell, out)
}
