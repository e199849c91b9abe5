package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/db/ent/schema/utils"
)

// ScanJob is one extraction run over a single certificate.
type ScanJob struct{ ent.Schema }

func (ScanJob) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "scan_jobs"},
	}
}

func (ScanJob) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("filename"),
		field.String("category").
			Validate(utils.EnumValidator(constants.AsStringSlice()...)),
		field.String("status").
			Validate(utils.EnumValidator(constants.JobStatusStrings()...)),
		field.Time("started_at").Default(time.Now),
		field.Time("finished_at").Optional().Nillable(),
		field.String("error_message").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.Int("fields_populated").Default(0),
		field.Float("accuracy").Default(0),
		field.JSON("result_json", json.RawMessage{}).
			Optional(),
	}
}

func (ScanJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "started_at"),
		index.Fields("started_at"),
	}
}
