// Code generated by ent, DO NOT EDIT.

package ent

import (
	"time"

	"github.com/enerdoc/docingest/db/ent/schema"
	"github.com/enerdoc/docingest/gen/ent/documentfile"
	"github.com/enerdoc/docingest/gen/ent/extractjob"
	"github.com/google/uuid"
)

// The init function reads all schema descriptors with runtime code
// (default values, validators, hooks and policies) and stitches it
// to their package variables.
func init() {
	documentfileFields := schema.DocumentFile{}.Fields()
	_ = documentfileFields
	// documentfileDescSourcePath is the schema descriptor for source_path field.
	documentfileDescSourcePath := documentfileFields[1].Descriptor()
	// documentfile.SourcePathValidator is a validator for the "source_path" field. It is called by the builders before save.
	documentfile.SourcePathValidator = documentfileDescSourcePath.Validators[0].(func(string) error)
	// documentfileDescContentHash is the schema descriptor for content_hash field.
	documentfileDescContentHash := documentfileFields[2].Descriptor()
	// documentfile.ContentHashValidator is a validator for the "content_hash" field. It is called by the builders before save.
	documentfile.ContentHashValidator = documentfileDescContentHash.Validators[0].(func([]byte) error)
	// documentfileDescFilename is the schema descriptor for filename field.
	documentfileDescFilename := documentfileFields[3].Descriptor()
	// documentfile.FilenameValidator is a validator for the "filename" field. It is called by the builders before save.
	documentfile.FilenameValidator = documentfileDescFilename.Validators[0].(func(string) error)
	// documentfileDescFileExt is the schema descriptor for file_ext field.
	documentfileDescFileExt := documentfileFields[4].Descriptor()
	// documentfile.FileExtValidator is a validator for the "file_ext" field. It is called by the builders before save.
	documentfile.FileExtValidator = documentfileDescFileExt.Validators[0].(func(string) error)
	// documentfileDescFileSize is the schema descriptor for file_size field.
	documentfileDescFileSize := documentfileFields[5].Descriptor()
	// documentfile.FileSizeValidator is a validator for the "file_size" field. It is called by the builders before save.
	documentfile.FileSizeValidator = documentfileDescFileSize.Validators[0].(func(int) error)
	// documentfileDescUploadedAt is the schema descriptor for uploaded_at field.
	documentfileDescUploadedAt := documentfileFields[6].Descriptor()
	// documentfile.DefaultUploadedAt holds the default value on creation for the uploaded_at field.
	documentfile.DefaultUploadedAt = documentfileDescUploadedAt.Default.(func() time.Time)
	// documentfileDescID is the schema descriptor for id field.
	documentfileDescID := documentfileFields[0].Descriptor()
	// documentfile.DefaultID holds the default value on creation for the id field.
	documentfile.DefaultID = documentfileDescID.Default.(func() uuid.UUID)
	extractjobFields := schema.ExtractJob{}.Fields()
	_ = extractjobFields
	// extractjobDescFormat is the schema descriptor for format field.
	extractjobDescFormat := extractjobFields[2].Descriptor()
	// extractjob.FormatValidator is a validator for the "format" field. It is called by the builders before save.
	extractjob.FormatValidator = func() func(string) error {
		validators := extractjobDescFormat.Validators
		fns := [...]func(string) error{
			validators[0].(func(string) error),
			validators[1].(func(string) error),
		}
		return func(format string) error {
			for _, fn := range fns {
				if err := fn(format); err != nil {
					return err
				}
			}
			return nil
		}
	}()
	// extractjobDescStartedAt is the schema descriptor for started_at field.
	extractjobDescStartedAt := extractjobFields[3].Descriptor()
	// extractjob.DefaultStartedAt holds the default value on creation for the started_at field.
	extractjob.DefaultStartedAt = extractjobDescStartedAt.Default.(func() time.Time)
	// extractjobDescStatus is the schema descriptor for status field.
	extractjobDescStatus := extractjobFields[5].Descriptor()
	// extractjob.StatusValidator is a validator for the "status" field. It is called by the builders before save.
	extractjob.StatusValidator = extractjobDescStatus.Validators[0].(func(string) error)
	// extractjobDescUsedRecognition is the schema descriptor for used_recognition field.
	extractjobDescUsedRecognition := extractjobFields[8].Descriptor()
	// extractjob.DefaultUsedRecognition holds the default value on creation for the used_recognition field.
	extractjob.DefaultUsedRecognition = extractjobDescUsedRecognition.Default.(bool)
	// extractjobDescEnhancementApplied is the schema descriptor for enhancement_applied field.
	extractjobDescEnhancementApplied := extractjobFields[9].Descriptor()
	// extractjob.DefaultEnhancementApplied holds the default value on creation for the enhancement_applied field.
	extractjob.DefaultEnhancementApplied = extractjobDescEnhancementApplied.Default.(bool)
	// extractjobDescID is the schema descriptor for id field.
	extractjobDescID := extractjobFields[0].Descriptor()
	// extractjob.DefaultID holds the default value on creation for the id field.
	extractjob.DefaultID = extractjobDescID.Default.(func() uuid.UUID)
}
