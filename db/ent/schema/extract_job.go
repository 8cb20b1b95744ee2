package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/db/ent/schema/utils"

	"github.com/google/uuid"
)

type ExtractJob struct{ ent.Schema }

func (ExtractJob) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "extract_job"},
	}
}

func (ExtractJob) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		// explicit FK
		field.UUID("file_id", uuid.UUID{}),
		field.String("format").NotEmpty().
			Validate(utils.EnumValidator(constants.FileTypes...)),
		field.Time("started_at").Default(time.Now),
		field.Time("finished_at").Optional().Nillable(),
		field.String("status").Optional().Nillable().
			Validate(utils.EnumValidator(constants.JobStatuses...)),
		field.String("error_message").Optional().Nillable(),
		field.String("strategy_used").Optional().Nillable(),
		field.Bool("used_recognition").Default(false),
		field.Bool("enhancement_applied").Default(false),
		field.String("extracted_text").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.JSON("tables", json.RawMessage{}).
			Optional(),
		field.JSON("classification", json.RawMessage{}).
			Optional(),
	}
}

func (ExtractJob) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("file", DocumentFile.Type).
			Ref("jobs").
			Field("file_id").
			Unique().
			Required(),
	}
}

func (ExtractJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("file_id", "status", "started_at"),
		index.Fields("file_id"),
	}
}
