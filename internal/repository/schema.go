package repository

import (
	"fmt"
	"strings"
	"sync"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	sqlschema "entgo.io/ent/dialect/sql/schema"

	dbschema "github.com/joseph-ayodele/yacht-extract/db/ent/schema"
)

// entTable is the migratable form of an ent schema together with the string
// validators declared on its fields.
type entTable struct {
	*sqlschema.Table
	validators map[string][]func(string) error
}

var scanJobsTable = sync.OnceValues(func() (*entTable, error) {
	return tableFromSchema(dbschema.ScanJob{})
})

func tableFromSchema(s ent.Interface) (*entTable, error) {
	t := &entTable{
		Table:      &sqlschema.Table{},
		validators: map[string][]func(string) error{},
	}
	for _, a := range s.Annotations() {
		switch a := a.(type) {
		case entsql.Annotation:
			t.Name = a.Table
		case *entsql.Annotation:
			t.Name = a.Table
		}
	}
	if t.Name == "" {
		return nil, fmt.Errorf("schema %T has no table annotation", s)
	}

	byName := map[string]*sqlschema.Column{}
	for _, f := range s.Fields() {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, d.Name, d.Err)
		}
		name := d.Name
		if d.StorageKey != "" {
			name = d.StorageKey
		}
		col := &sqlschema.Column{
			Name:       name,
			Type:       d.Info.Type,
			Size:       int64(d.Size),
			Unique:     d.Unique,
			Nullable:   d.Optional,
			SchemaType: d.SchemaType,
		}
		t.Columns = append(t.Columns, col)
		byName[d.Name] = col
		if name == "id" {
			t.PrimaryKey = []*sqlschema.Column{col}
		}
		for _, v := range d.Validators {
			if fn, ok := v.(func(string) error); ok {
				t.validators[name] = append(t.validators[name], fn)
			}
		}
	}
	if len(t.PrimaryKey) == 0 {
		return nil, fmt.Errorf("schema %T has no id field", s)
	}

	for _, ix := range s.Indexes() {
		d := ix.Descriptor()
		idx := &sqlschema.Index{Unique: d.Unique, Name: d.StorageKey}
		for _, name := range d.Fields {
			col, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%s: index on unknown field %q", t.Name, name)
			}
			idx.Columns = append(idx.Columns, col)
		}
		if idx.Name == "" {
			idx.Name = strings.ToLower(t.Name + "_" + strings.Join(d.Fields, "_"))
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return t, nil
}

// validate runs the schema validators of column against v.
func (t *entTable) validate(column, v string) error {
	for _, fn := range t.validators[column] {
		if err := fn(v); err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name, column, err)
		}
	}
	return nil
}
