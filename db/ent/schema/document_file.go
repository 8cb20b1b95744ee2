package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

type DocumentFile struct {
	ent.Schema
}

func (DocumentFile) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "document_files"},
	}
}

func (DocumentFile) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("source_path").NotEmpty(),
		// content hash gives files a stable identity across re-ingestion
		field.Bytes("content_hash").NotEmpty().
			SchemaType(map[string]string{dialect.Postgres: "bytea"}),
		field.String("filename").NotEmpty(),
		field.String("file_ext").NotEmpty(),
		field.Int("file_size").NonNegative(),
		field.Time("uploaded_at").Default(time.Now),
	}
}

func (DocumentFile) Edges() []ent.Edge {
	return []ent.Edge{
		// ONE file -> MANY jobs
		edge.To("jobs", ExtractJob.Type),
	}
}

func (DocumentFile) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("content_hash").Unique(),
		index.Fields("uploaded_at"),
	}
}
