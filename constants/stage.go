package constants

// Stage names are part of the job status payload consumed by callers.
// Do not rename: pollers match on these exact strings.
type Stage string

const (
	StageUpload             Stage = "upload"
	StageValidation         Stage = "validation"
	StageParsing            Stage = "parsing"
	StageRecognition        Stage = "recognition"
	StageAIAnalysis         Stage = "ai_analysis"
	StageSpecializedParsing Stage = "specialized_parsing"
	StageAggregation        Stage = "aggregation"
	StageSaving             Stage = "saving"
	StageCompleted          Stage = "completed"
	StageError              Stage = "error"
)

// DocCategory buckets a document for progress weighting. Image-heavy
// documents spend most of their wall clock in recognition; text-heavy
// documents in parsing.
type DocCategory string

const (
	CategoryImageHeavy DocCategory = "image_heavy"
	CategoryTextHeavy  DocCategory = "text_heavy"
	CategoryMixed      DocCategory = "mixed"
	CategoryUnknown    DocCategory = "unknown"
)
