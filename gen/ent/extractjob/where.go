// Code generated by ent, DO NOT EDIT.

package extractjob

import (
	"time"

	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/enerdoc/docingest/gen/ent/predicate"
	"github.com/google/uuid"
)

// ID filters vertices based on their ID field.
func ID(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldID, id))
}

// IDEQ applies the EQ predicate on the ID field.
func IDEQ(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldID, id))
}

// IDNEQ applies the NEQ predicate on the ID field.
func IDNEQ(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldID, id))
}

// IDIn applies the In predicate on the ID field.
func IDIn(ids ...uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldID, ids...))
}

// IDNotIn applies the NotIn predicate on the ID field.
func IDNotIn(ids ...uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldID, ids...))
}

// IDGT applies the GT predicate on the ID field.
func IDGT(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldID, id))
}

// IDGTE applies the GTE predicate on the ID field.
func IDGTE(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldID, id))
}

// IDLT applies the LT predicate on the ID field.
func IDLT(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldID, id))
}

// IDLTE applies the LTE predicate on the ID field.
func IDLTE(id uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldID, id))
}

// FileID applies equality check predicate on the "file_id" field. It's identical to FileIDEQ.
func FileID(v uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldFileID, v))
}

// Format applies equality check predicate on the "format" field. It's identical to FormatEQ.
func Format(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldFormat, v))
}

// StartedAt applies equality check predicate on the "started_at" field. It's identical to StartedAtEQ.
func StartedAt(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldStartedAt, v))
}

// FinishedAt applies equality check predicate on the "finished_at" field. It's identical to FinishedAtEQ.
func FinishedAt(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldFinishedAt, v))
}

// Status applies equality check predicate on the "status" field. It's identical to StatusEQ.
func Status(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldStatus, v))
}

// ErrorMessage applies equality check predicate on the "error_message" field. It's identical to ErrorMessageEQ.
func ErrorMessage(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldErrorMessage, v))
}

// StrategyUsed applies equality check predicate on the "strategy_used" field. It's identical to StrategyUsedEQ.
func StrategyUsed(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldStrategyUsed, v))
}

// UsedRecognition applies equality check predicate on the "used_recognition" field. It's identical to UsedRecognitionEQ.
func UsedRecognition(v bool) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldUsedRecognition, v))
}

// EnhancementApplied applies equality check predicate on the "enhancement_applied" field. It's identical to EnhancementAppliedEQ.
func EnhancementApplied(v bool) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldEnhancementApplied, v))
}

// ExtractedText applies equality check predicate on the "extracted_text" field. It's identical to ExtractedTextEQ.
func ExtractedText(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldExtractedText, v))
}

// FileIDEQ applies the EQ predicate on the "file_id" field.
func FileIDEQ(v uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldFileID, v))
}

// FileIDNEQ applies the NEQ predicate on the "file_id" field.
func FileIDNEQ(v uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldFileID, v))
}

// FileIDIn applies the In predicate on the "file_id" field.
func FileIDIn(vs ...uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldFileID, vs...))
}

// FileIDNotIn applies the NotIn predicate on the "file_id" field.
func FileIDNotIn(vs ...uuid.UUID) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldFileID, vs...))
}

// FormatEQ applies the EQ predicate on the "format" field.
func FormatEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldFormat, v))
}

// FormatNEQ applies the NEQ predicate on the "format" field.
func FormatNEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldFormat, v))
}

// FormatIn applies the In predicate on the "format" field.
func FormatIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldFormat, vs...))
}

// FormatNotIn applies the NotIn predicate on the "format" field.
func FormatNotIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldFormat, vs...))
}

// FormatGT applies the GT predicate on the "format" field.
func FormatGT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldFormat, v))
}

// FormatGTE applies the GTE predicate on the "format" field.
func FormatGTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldFormat, v))
}

// FormatLT applies the LT predicate on the "format" field.
func FormatLT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldFormat, v))
}

// FormatLTE applies the LTE predicate on the "format" field.
func FormatLTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldFormat, v))
}

// FormatContains applies the Contains predicate on the "format" field.
func FormatContains(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContains(FieldFormat, v))
}

// FormatHasPrefix applies the HasPrefix predicate on the "format" field.
func FormatHasPrefix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasPrefix(FieldFormat, v))
}

// FormatHasSuffix applies the HasSuffix predicate on the "format" field.
func FormatHasSuffix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasSuffix(FieldFormat, v))
}

// FormatEqualFold applies the EqualFold predicate on the "format" field.
func FormatEqualFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEqualFold(FieldFormat, v))
}

// FormatContainsFold applies the ContainsFold predicate on the "format" field.
func FormatContainsFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContainsFold(FieldFormat, v))
}

// StartedAtEQ applies the EQ predicate on the "started_at" field.
func StartedAtEQ(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldStartedAt, v))
}

// StartedAtNEQ applies the NEQ predicate on the "started_at" field.
func StartedAtNEQ(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldStartedAt, v))
}

// StartedAtIn applies the In predicate on the "started_at" field.
func StartedAtIn(vs ...time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldStartedAt, vs...))
}

// StartedAtNotIn applies the NotIn predicate on the "started_at" field.
func StartedAtNotIn(vs ...time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldStartedAt, vs...))
}

// StartedAtGT applies the GT predicate on the "started_at" field.
func StartedAtGT(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldStartedAt, v))
}

// StartedAtGTE applies the GTE predicate on the "started_at" field.
func StartedAtGTE(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldStartedAt, v))
}

// StartedAtLT applies the LT predicate on the "started_at" field.
func StartedAtLT(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldStartedAt, v))
}

// StartedAtLTE applies the LTE predicate on the "started_at" field.
func StartedAtLTE(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldStartedAt, v))
}

// FinishedAtEQ applies the EQ predicate on the "finished_at" field.
func FinishedAtEQ(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldFinishedAt, v))
}

// FinishedAtNEQ applies the NEQ predicate on the "finished_at" field.
func FinishedAtNEQ(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldFinishedAt, v))
}

// FinishedAtIn applies the In predicate on the "finished_at" field.
func FinishedAtIn(vs ...time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldFinishedAt, vs...))
}

// FinishedAtNotIn applies the NotIn predicate on the "finished_at" field.
func FinishedAtNotIn(vs ...time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldFinishedAt, vs...))
}

// FinishedAtGT applies the GT predicate on the "finished_at" field.
func FinishedAtGT(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldFinishedAt, v))
}

// FinishedAtGTE applies the GTE predicate on the "finished_at" field.
func FinishedAtGTE(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldFinishedAt, v))
}

// FinishedAtLT applies the LT predicate on the "finished_at" field.
func FinishedAtLT(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldFinishedAt, v))
}

// FinishedAtLTE applies the LTE predicate on the "finished_at" field.
func FinishedAtLTE(v time.Time) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldFinishedAt, v))
}

// FinishedAtIsNil applies the IsNil predicate on the "finished_at" field.
func FinishedAtIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldFinishedAt))
}

// FinishedAtNotNil applies the NotNil predicate on the "finished_at" field.
func FinishedAtNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldFinishedAt))
}

// StatusEQ applies the EQ predicate on the "status" field.
func StatusEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldStatus, v))
}

// StatusNEQ applies the NEQ predicate on the "status" field.
func StatusNEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldStatus, v))
}

// StatusIn applies the In predicate on the "status" field.
func StatusIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldStatus, vs...))
}

// StatusNotIn applies the NotIn predicate on the "status" field.
func StatusNotIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldStatus, vs...))
}

// StatusGT applies the GT predicate on the "status" field.
func StatusGT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldStatus, v))
}

// StatusGTE applies the GTE predicate on the "status" field.
func StatusGTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldStatus, v))
}

// StatusLT applies the LT predicate on the "status" field.
func StatusLT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldStatus, v))
}

// StatusLTE applies the LTE predicate on the "status" field.
func StatusLTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldStatus, v))
}

// StatusContains applies the Contains predicate on the "status" field.
func StatusContains(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContains(FieldStatus, v))
}

// StatusHasPrefix applies the HasPrefix predicate on the "status" field.
func StatusHasPrefix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasPrefix(FieldStatus, v))
}

// StatusHasSuffix applies the HasSuffix predicate on the "status" field.
func StatusHasSuffix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasSuffix(FieldStatus, v))
}

// StatusIsNil applies the IsNil predicate on the "status" field.
func StatusIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldStatus))
}

// StatusNotNil applies the NotNil predicate on the "status" field.
func StatusNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldStatus))
}

// StatusEqualFold applies the EqualFold predicate on the "status" field.
func StatusEqualFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEqualFold(FieldStatus, v))
}

// StatusContainsFold applies the ContainsFold predicate on the "status" field.
func StatusContainsFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContainsFold(FieldStatus, v))
}

// ErrorMessageEQ applies the EQ predicate on the "error_message" field.
func ErrorMessageEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldErrorMessage, v))
}

// ErrorMessageNEQ applies the NEQ predicate on the "error_message" field.
func ErrorMessageNEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldErrorMessage, v))
}

// ErrorMessageIn applies the In predicate on the "error_message" field.
func ErrorMessageIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldErrorMessage, vs...))
}

// ErrorMessageNotIn applies the NotIn predicate on the "error_message" field.
func ErrorMessageNotIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldErrorMessage, vs...))
}

// ErrorMessageGT applies the GT predicate on the "error_message" field.
func ErrorMessageGT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldErrorMessage, v))
}

// ErrorMessageGTE applies the GTE predicate on the "error_message" field.
func ErrorMessageGTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldErrorMessage, v))
}

// ErrorMessageLT applies the LT predicate on the "error_message" field.
func ErrorMessageLT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldErrorMessage, v))
}

// ErrorMessageLTE applies the LTE predicate on the "error_message" field.
func ErrorMessageLTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldErrorMessage, v))
}

// ErrorMessageContains applies the Contains predicate on the "error_message" field.
func ErrorMessageContains(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContains(FieldErrorMessage, v))
}

// ErrorMessageHasPrefix applies the HasPrefix predicate on the "error_message" field.
func ErrorMessageHasPrefix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasPrefix(FieldErrorMessage, v))
}

// ErrorMessageHasSuffix applies the HasSuffix predicate on the "error_message" field.
func ErrorMessageHasSuffix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasSuffix(FieldErrorMessage, v))
}

// ErrorMessageIsNil applies the IsNil predicate on the "error_message" field.
func ErrorMessageIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldErrorMessage))
}

// ErrorMessageNotNil applies the NotNil predicate on the "error_message" field.
func ErrorMessageNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldErrorMessage))
}

// ErrorMessageEqualFold applies the EqualFold predicate on the "error_message" field.
func ErrorMessageEqualFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEqualFold(FieldErrorMessage, v))
}

// ErrorMessageContainsFold applies the ContainsFold predicate on the "error_message" field.
func ErrorMessageContainsFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContainsFold(FieldErrorMessage, v))
}

// StrategyUsedEQ applies the EQ predicate on the "strategy_used" field.
func StrategyUsedEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldStrategyUsed, v))
}

// StrategyUsedNEQ applies the NEQ predicate on the "strategy_used" field.
func StrategyUsedNEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldStrategyUsed, v))
}

// StrategyUsedIn applies the In predicate on the "strategy_used" field.
func StrategyUsedIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldStrategyUsed, vs...))
}

// StrategyUsedNotIn applies the NotIn predicate on the "strategy_used" field.
func StrategyUsedNotIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldStrategyUsed, vs...))
}

// StrategyUsedGT applies the GT predicate on the "strategy_used" field.
func StrategyUsedGT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldStrategyUsed, v))
}

// StrategyUsedGTE applies the GTE predicate on the "strategy_used" field.
func StrategyUsedGTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldStrategyUsed, v))
}

// StrategyUsedLT applies the LT predicate on the "strategy_used" field.
func StrategyUsedLT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldStrategyUsed, v))
}

// StrategyUsedLTE applies the LTE predicate on the "strategy_used" field.
func StrategyUsedLTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldStrategyUsed, v))
}

// StrategyUsedContains applies the Contains predicate on the "strategy_used" field.
func StrategyUsedContains(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContains(FieldStrategyUsed, v))
}

// StrategyUsedHasPrefix applies the HasPrefix predicate on the "strategy_used" field.
func StrategyUsedHasPrefix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasPrefix(FieldStrategyUsed, v))
}

// StrategyUsedHasSuffix applies the HasSuffix predicate on the "strategy_used" field.
func StrategyUsedHasSuffix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasSuffix(FieldStrategyUsed, v))
}

// StrategyUsedIsNil applies the IsNil predicate on the "strategy_used" field.
func StrategyUsedIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldStrategyUsed))
}

// StrategyUsedNotNil applies the NotNil predicate on the "strategy_used" field.
func StrategyUsedNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldStrategyUsed))
}

// StrategyUsedEqualFold applies the EqualFold predicate on the "strategy_used" field.
func StrategyUsedEqualFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEqualFold(FieldStrategyUsed, v))
}

// StrategyUsedContainsFold applies the ContainsFold predicate on the "strategy_used" field.
func StrategyUsedContainsFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContainsFold(FieldStrategyUsed, v))
}

// UsedRecognitionEQ applies the EQ predicate on the "used_recognition" field.
func UsedRecognitionEQ(v bool) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldUsedRecognition, v))
}

// UsedRecognitionNEQ applies the NEQ predicate on the "used_recognition" field.
func UsedRecognitionNEQ(v bool) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldUsedRecognition, v))
}

// EnhancementAppliedEQ applies the EQ predicate on the "enhancement_applied" field.
func EnhancementAppliedEQ(v bool) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldEnhancementApplied, v))
}

// EnhancementAppliedNEQ applies the NEQ predicate on the "enhancement_applied" field.
func EnhancementAppliedNEQ(v bool) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldEnhancementApplied, v))
}

// ExtractedTextEQ applies the EQ predicate on the "extracted_text" field.
func ExtractedTextEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEQ(FieldExtractedText, v))
}

// ExtractedTextNEQ applies the NEQ predicate on the "extracted_text" field.
func ExtractedTextNEQ(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNEQ(FieldExtractedText, v))
}

// ExtractedTextIn applies the In predicate on the "extracted_text" field.
func ExtractedTextIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIn(FieldExtractedText, vs...))
}

// ExtractedTextNotIn applies the NotIn predicate on the "extracted_text" field.
func ExtractedTextNotIn(vs ...string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotIn(FieldExtractedText, vs...))
}

// ExtractedTextGT applies the GT predicate on the "extracted_text" field.
func ExtractedTextGT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGT(FieldExtractedText, v))
}

// ExtractedTextGTE applies the GTE predicate on the "extracted_text" field.
func ExtractedTextGTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldGTE(FieldExtractedText, v))
}

// ExtractedTextLT applies the LT predicate on the "extracted_text" field.
func ExtractedTextLT(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLT(FieldExtractedText, v))
}

// ExtractedTextLTE applies the LTE predicate on the "extracted_text" field.
func ExtractedTextLTE(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldLTE(FieldExtractedText, v))
}

// ExtractedTextContains applies the Contains predicate on the "extracted_text" field.
func ExtractedTextContains(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContains(FieldExtractedText, v))
}

// ExtractedTextHasPrefix applies the HasPrefix predicate on the "extracted_text" field.
func ExtractedTextHasPrefix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasPrefix(FieldExtractedText, v))
}

// ExtractedTextHasSuffix applies the HasSuffix predicate on the "extracted_text" field.
func ExtractedTextHasSuffix(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldHasSuffix(FieldExtractedText, v))
}

// ExtractedTextIsNil applies the IsNil predicate on the "extracted_text" field.
func ExtractedTextIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldExtractedText))
}

// ExtractedTextNotNil applies the NotNil predicate on the "extracted_text" field.
func ExtractedTextNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldExtractedText))
}

// ExtractedTextEqualFold applies the EqualFold predicate on the "extracted_text" field.
func ExtractedTextEqualFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldEqualFold(FieldExtractedText, v))
}

// ExtractedTextContainsFold applies the ContainsFold predicate on the "extracted_text" field.
func ExtractedTextContainsFold(v string) predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldContainsFold(FieldExtractedText, v))
}

// TablesIsNil applies the IsNil predicate on the "tables" field.
func TablesIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldTables))
}

// TablesNotNil applies the NotNil predicate on the "tables" field.
func TablesNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldTables))
}

// ClassificationIsNil applies the IsNil predicate on the "classification" field.
func ClassificationIsNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldIsNull(FieldClassification))
}

// ClassificationNotNil applies the NotNil predicate on the "classification" field.
func ClassificationNotNil() predicate.ExtractJob {
	return predicate.ExtractJob(sql.FieldNotNull(FieldClassification))
}

// HasFile applies the HasEdge predicate on the "file" edge.
func HasFile() predicate.ExtractJob {
	return predicate.ExtractJob(func(s *sql.Selector) {
		step := sqlgraph.NewStep(
			sqlgraph.From(Table, FieldID),
			sqlgraph.Edge(sqlgraph.M2O, true, FileTable, FileColumn),
		)
		sqlgraph.HasNeighbors(s, step)
	})
}

// HasFileWith applies the HasEdge predicate on the "file" edge with a given conditions (other predicates).
func HasFileWith(preds ...predicate.DocumentFile) predicate.ExtractJob {
	return predicate.ExtractJob(func(s *sql.Selector) {
		step := newFileStep()
		sqlgraph.HasNeighborsWith(s, step, func(s *sql.Selector) {
			for _, p := range preds {
				p(s)
			}
		})
	})
}

// And groups predicates with the AND operator between them.
func And(predicates ...predicate.ExtractJob) predicate.ExtractJob {
	return predicate.ExtractJob(sql.AndPredicates(predicates...))
}

// Or groups predicates with the OR operator between them.
func Or(predicates ...predicate.ExtractJob) predicate.ExtractJob {
	return predicate.ExtractJob(sql.OrPredicates(predicates...))
}

// Not applies the not operator on the given predicate.
func Not(p predicate.ExtractJob) predicate.ExtractJob {
	return predicate.ExtractJob(sql.NotPredicates(p))
}
