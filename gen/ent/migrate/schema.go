// Code generated by ent, DO NOT EDIT.

package migrate

import (
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// DocumentFilesColumns holds the columns for the "document_files" table.
	DocumentFilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "source_path", Type: field.TypeString},
		{Name: "content_hash", Type: field.TypeBytes, SchemaType: map[string]string{"postgres": "bytea"}},
		{Name: "filename", Type: field.TypeString},
		{Name: "file_ext", Type: field.TypeString},
		{Name: "file_size", Type: field.TypeInt},
		{Name: "uploaded_at", Type: field.TypeTime},
	}
	// DocumentFilesTable holds the schema information for the "document_files" table.
	DocumentFilesTable = &schema.Table{
		Name:       "document_files",
		Columns:    DocumentFilesColumns,
		PrimaryKey: []*schema.Column{DocumentFilesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "documentfile_content_hash",
				Unique:  true,
				Columns: []*schema.Column{DocumentFilesColumns[2]},
			},
			{
				Name:    "documentfile_uploaded_at",
				Unique:  false,
				Columns: []*schema.Column{DocumentFilesColumns[6]},
			},
		},
	}
	// ExtractJobColumns holds the columns for the "extract_job" table.
	ExtractJobColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "format", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
		{Name: "status", Type: field.TypeString, Nullable: true},
		{Name: "error_message", Type: field.TypeString, Nullable: true},
		{Name: "strategy_used", Type: field.TypeString, Nullable: true},
		{Name: "used_recognition", Type: field.TypeBool, Default: false},
		{Name: "enhancement_applied", Type: field.TypeBool, Default: false},
		{Name: "extracted_text", Type: field.TypeString, Nullable: true, SchemaType: map[string]string{"postgres": "text"}},
		{Name: "tables", Type: field.TypeJSON, Nullable: true},
		{Name: "classification", Type: field.TypeJSON, Nullable: true},
		{Name: "file_id", Type: field.TypeUUID},
	}
	// ExtractJobTable holds the schema information for the "extract_job" table.
	ExtractJobTable = &schema.Table{
		Name:       "extract_job",
		Columns:    ExtractJobColumns,
		PrimaryKey: []*schema.Column{ExtractJobColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "extract_job_document_files_jobs",
				Columns:    []*schema.Column{ExtractJobColumns[12]},
				RefColumns: []*schema.Column{DocumentFilesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "extractjob_file_id_status_started_at",
				Unique:  false,
				Columns: []*schema.Column{ExtractJobColumns[12], ExtractJobColumns[4], ExtractJobColumns[2]},
			},
			{
				Name:    "extractjob_file_id",
				Unique:  false,
				Columns: []*schema.Column{ExtractJobColumns[12]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		DocumentFilesTable,
		ExtractJobTable,
	}
)

func init() {
	DocumentFilesTable.Annotation = &entsql.Annotation{
		Table: "document_files",
	}
	ExtractJobTable.ForeignKeys[0].RefTable = DocumentFilesTable
	ExtractJobTable.Annotation = &entsql.Annotation{
		Table: "extract_job",
	}
}
