// Package pipeline drives a document through classification, table
// extraction, recognition, enhancement and merge.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/internal/classifier"
	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/document"
	"github.com/enerdoc/docingest/internal/enhance"
	"github.com/enerdoc/docingest/internal/preprocess"
	"github.com/enerdoc/docingest/internal/progress"
	"github.com/enerdoc/docingest/internal/recognize"
	"github.com/enerdoc/docingest/internal/tables"
	"github.com/enerdoc/docingest/internal/worker"
)

// State is the orchestrator's position in the extraction state machine.
type State string

const (
	StateClassifying      State = "Classifying"
	StateStrategySelected State = "StrategySelected"
	StateExtractingText   State = "ExtractingText"
	StateExtractingTables State = "ExtractingTables"
	StateEnhancing        State = "Enhancing"
	StateMerging          State = "Merging"
	StateDone             State = "Done"
	StateFailed           State = "Failed"
	StateCancelled        State = "Cancelled"
)

// ExtractionResult is the unified output of one job. The provenance flags
// let consumers judge how trustworthy the content is.
type ExtractionResult struct {
	Text               string            `json:"text"`
	Tables             []tables.Table    `json:"tables"`
	UsedRecognition    bool              `json:"usedRecognition"`
	StrategyUsed       string            `json:"strategyUsed"`
	EnhancementApplied bool              `json:"enhancementApplied"`
	Classification     classifier.Result `json:"classification"`
}

// Orchestrator runs the extraction state machine for one job at a time.
// The recognizer and enhancer collaborators are optional; a nil enhancer
// skips the enhancement stage, a nil recognizer fails jobs whose strategy
// requires recognition.
type Orchestrator struct {
	classifier *classifier.Classifier
	registry   *tables.Registry
	pre        *preprocess.Preprocessor
	recognizer recognize.Recognizer
	enhancer   enhance.Enhancer
	cfg        common.RecognizeConfig
	logger     *slog.Logger
}

func NewOrchestrator(
	cls *classifier.Classifier,
	registry *tables.Registry,
	pre *preprocess.Preprocessor,
	recognizer recognize.Recognizer,
	enhancer enhance.Enhancer,
	cfg common.RecognizeConfig,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = tables.DefaultRegistry()
	}
	return &Orchestrator{
		classifier: cls,
		registry:   registry,
		pre:        pre,
		recognizer: recognizer,
		enhancer:   enhancer,
		cfg:        cfg,
		logger:     logger,
	}
}

func categoryFor(t classifier.DocType) constants.DocCategory {
	switch t {
	case classifier.ImageNative:
		return constants.CategoryImageHeavy
	case classifier.TextNative:
		return constants.CategoryTextHeavy
	case classifier.Hybrid:
		return constants.CategoryMixed
	default:
		return constants.CategoryUnknown
	}
}

func (o *Orchestrator) transition(jobID string, s State) {
	o.logger.Info("pipeline.state", "job_id", jobID, "state", string(s))
}

// Run executes the full state machine over an opened source. The job's
// progress state must already be registered; Run updates stages but leaves
// the terminal Complete/Fail transition to the caller, which also owns
// persistence.
func (o *Orchestrator) Run(ctx context.Context, jobID string, src document.Source, job *progress.Job) (*ExtractionResult, error) {
	o.transition(jobID, StateClassifying)
	job.UpdateStage(constants.StageParsing, 5, "classifying document")

	cls := o.classifier.Classify(src)
	strategy := classifier.SelectStrategy(cls)
	job.SetCategory(categoryFor(cls.DocumentType))

	o.transition(jobID, StateStrategySelected)
	o.logger.Info("pipeline.strategy",
		"job_id", jobID,
		"type", string(cls.DocumentType),
		"confidence", string(cls.Confidence),
		"strategy", string(strategy),
	)

	if job.Cancelled() {
		return nil, o.cancelled(jobID)
	}

	res := &ExtractionResult{
		StrategyUsed:   string(strategy),
		Classification: cls,
	}

	var pooled []tables.Table
	var err error
	switch strategy {
	case classifier.TextFirst:
		pooled, err = o.runTextFirst(ctx, jobID, src, job, cls, res)
	case classifier.RecognitionFirst:
		pooled, err = o.runRecognitionFirst(ctx, jobID, src, job, res)
	default:
		pooled, err = o.runHybrid(ctx, jobID, src, job, res)
	}
	if err != nil {
		if errors.Is(err, common.ErrCancelled) {
			return nil, o.cancelled(jobID)
		}
		o.transition(jobID, StateFailed)
		return nil, err
	}
	if job.Cancelled() {
		return nil, o.cancelled(jobID)
	}

	if res.UsedRecognition && o.enhancer != nil {
		o.transition(jobID, StateEnhancing)
		job.UpdateStage(constants.StageAIAnalysis, 10, "enhancing recognized text")
		enhanced, enhErr := o.enhancer.Enhance(ctx, res.Text)
		switch {
		case enhErr == nil && strings.TrimSpace(enhanced) != "":
			res.Text = enhanced
			res.EnhancementApplied = true
		case enhErr != nil && errors.Is(enhErr, common.ErrTimeout):
			o.transition(jobID, StateFailed)
			return nil, enhErr
		case enhErr != nil:
			// Recoverable: keep the unenhanced text.
			o.logger.Warn("pipeline.enhance.failed", "job_id", jobID, "error", enhErr)
		}
		job.UpdateStage(constants.StageAIAnalysis, 100, "enhancement finished")
	}

	o.transition(jobID, StateMerging)
	job.UpdateStage(constants.StageAggregation, 50, "merging tables")
	res.Tables = tables.Merge(pooled)
	job.UpdateStage(constants.StageAggregation, 100, "tables merged")

	o.transition(jobID, StateDone)
	return res, nil
}

func (o *Orchestrator) cancelled(jobID string) error {
	o.transition(jobID, StateCancelled)
	return common.NewAppError("CANCELLED", "job cancelled by caller", common.ErrCancelled)
}

// runTextFirst extracts from the native text layer. When the text layer is
// thin (below the mid chars threshold) recognition still runs and the longer
// output wins, since sparse embedded text often means a bad producer.
func (o *Orchestrator) runTextFirst(ctx context.Context, jobID string, src document.Source, job *progress.Job, cls classifier.Result, res *ExtractionResult) ([]tables.Table, error) {
	o.transition(jobID, StateExtractingText)
	pageTexts, err := o.nativePageTexts(src, job)
	if err != nil {
		return nil, err
	}

	nativeLen := 0
	for _, t := range pageTexts {
		nativeLen += len(t.Text)
	}

	if cls.AvgCharsPerPage < 50 && o.recognizer != nil {
		recognized, recErr := o.recognizePages(ctx, jobID, src, job)
		if recErr != nil {
			return nil, recErr
		}
		recognizedLen := 0
		for _, t := range recognized {
			recognizedLen += len(t.Text)
		}
		if recognizedLen > nativeLen {
			pageTexts = recognized
			res.UsedRecognition = true
		}
	}

	res.Text = joinPages(pageTexts)
	return o.extractTables(jobID, pageTexts, job), nil
}

// runRecognitionFirst skips the native text layer entirely.
func (o *Orchestrator) runRecognitionFirst(ctx context.Context, jobID string, src document.Source, job *progress.Job, res *ExtractionResult) ([]tables.Table, error) {
	if o.recognizer == nil {
		return nil, common.NewAppError("ENGINE_UNAVAILABLE", "strategy requires recognition but no engine is configured", common.ErrEngineUnavailable)
	}

	o.transition(jobID, StateExtractingText)
	pageTexts, err := o.recognizePages(ctx, jobID, src, job)
	if err != nil {
		return nil, err
	}
	res.UsedRecognition = true
	res.Text = joinPages(pageTexts)
	return o.extractTables(jobID, pageTexts, job), nil
}

// runHybrid pools tables from both the native and the recognized text and
// keeps the longer text per page.
func (o *Orchestrator) runHybrid(ctx context.Context, jobID string, src document.Source, job *progress.Job, res *ExtractionResult) ([]tables.Table, error) {
	o.transition(jobID, StateExtractingText)
	native, err := o.nativePageTexts(src, job)
	if err != nil {
		return nil, err
	}

	merged := native
	var recognized []tables.PageText

	if o.recognizer != nil {
		recognized, err = o.recognizePages(ctx, jobID, src, job)
		if err != nil {
			return nil, err
		}
		res.UsedRecognition = true

		byPage := make(map[int]string, len(recognized))
		for _, t := range recognized {
			byPage[t.Number] = t.Text
		}
		merged = make([]tables.PageText, len(native))
		copy(merged, native)
		for i, t := range merged {
			if rec, ok := byPage[t.Number]; ok && len(rec) > len(t.Text) {
				merged[i].Text = rec
			}
		}
	}

	// Table extraction waits for both text sources so the parsing and
	// recognition stages finish before specialized_parsing starts.
	pooled := o.extractTables(jobID, native, job)
	if len(recognized) > 0 {
		pooled = append(pooled, o.extractTables(jobID, recognized, job)...)
	}

	res.Text = joinPages(merged)
	return pooled, nil
}

func (o *Orchestrator) nativePageTexts(src document.Source, job *progress.Job) ([]tables.PageText, error) {
	n := src.NumPages()
	out := make([]tables.PageText, 0, n)
	for i := 0; i < n; i++ {
		if job.Cancelled() {
			return nil, common.ErrCancelled
		}
		text, err := src.PageText(i)
		if err != nil {
			// Page-level failure: the page yields no text.
			o.logger.Warn("pipeline.page_text.failed", "page", i+1, "error", err)
			text = ""
		}
		out = append(out, tables.PageText{Number: i + 1, Text: text})
		job.UpdateStage(constants.StageParsing, (i+1)*100/n, fmt.Sprintf("parsed page %d/%d", i+1, n))
	}
	return out, nil
}

// recognizePages renders, preprocesses and recognizes each page on the
// worker pool. Cancellation is polled before every page submission; a
// timeout on any page fails the whole job.
func (o *Orchestrator) recognizePages(ctx context.Context, jobID string, src document.Source, job *progress.Job) ([]tables.PageText, error) {
	n := src.NumPages()
	if o.cfg.MaxPages > 0 && n > o.cfg.MaxPages {
		n = o.cfg.MaxPages
	}
	if n == 0 {
		return nil, nil
	}

	pool := worker.NewPool(o.cfg.Concurrency)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i := 0; i < n; i++ {
			if job.Cancelled() || ctx.Err() != nil {
				return
			}
			pageNum := i + 1
			pageIdx := i
			pool.Submit(worker.PageJob{
				PageNumber: pageNum,
				Run: func() (string, error) {
					return o.recognizeOne(ctx, src, pageIdx)
				},
			})
		}
	}()

	byPage := make(map[int]string, n)
	var fatal error
	completed := 0
	for pr := range pool.Results() {
		completed++
		if pr.Err != nil {
			if errors.Is(pr.Err, common.ErrTimeout) || errors.Is(pr.Err, common.ErrCancelled) {
				if fatal == nil {
					fatal = pr.Err
				}
				continue
			}
			// Recoverable: the page contributes empty text.
			o.logger.Warn("pipeline.recognize.page_failed",
				"job_id", jobID, "page", pr.PageNumber, "error", pr.Err)
			byPage[pr.PageNumber] = ""
		} else {
			byPage[pr.PageNumber] = pr.Text
		}
		job.UpdateStage(constants.StageRecognition, completed*100/n,
			fmt.Sprintf("recognized page %d/%d", completed, n))
	}

	if job.Cancelled() {
		return nil, common.ErrCancelled
	}
	if fatal != nil {
		return nil, fatal
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	out := make([]tables.PageText, 0, len(pages))
	for _, p := range pages {
		out = append(out, tables.PageText{Number: p, Text: byPage[p]})
	}
	job.UpdateStage(constants.StageRecognition, 100, "recognition finished")
	return out, nil
}

func (o *Orchestrator) recognizeOne(ctx context.Context, src document.Source, pageIdx int) (string, error) {
	pageCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	img, err := src.PageImage(pageCtx, pageIdx)
	if err != nil {
		return "", common.ClassifyContext(err)
	}
	if o.pre != nil {
		img = o.pre.Enhance(img)
	}
	text, err := o.recognizer.Recognize(pageCtx, img, nil)
	if err != nil {
		if ctxErr := common.ClassifyContext(pageCtx.Err()); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	return text, nil
}

// extractTables runs every available backend over every page. Backends for
// one page run concurrently but the pooled set is only returned once all of
// them are done, so the merge never sees a partial page.
func (o *Orchestrator) extractTables(jobID string, pageTexts []tables.PageText, job *progress.Job) []tables.Table {
	o.transition(jobID, StateExtractingTables)
	backends := o.registry.Available()
	if len(backends) == 0 {
		o.logger.Warn("pipeline.tables.no_backends", "job_id", jobID)
		return nil
	}

	var pooled []tables.Table
	for pi, pt := range pageTexts {
		if job.Cancelled() {
			break
		}
		// Recognition engines sometimes emit one blob with embedded page
		// markers; split so chunks keep their true page numbers.
		for _, chunk := range tables.SplitPages(pt.Text, pt.Number) {
			// Backends run concurrently per page but land in
			// preference-order slots, so the pooled order (and merge
			// tie-breaking) stays deterministic.
			found := make([][]tables.Table, len(backends))
			var wg sync.WaitGroup
			for bi, b := range backends {
				wg.Add(1)
				go func(bi int, b tables.Backend) {
					defer wg.Done()
					found[bi] = b.ExtractFromText(chunk.Number, chunk.Text)
				}(bi, b)
			}
			wg.Wait()
			for _, f := range found {
				pooled = append(pooled, f...)
			}
		}
		job.UpdateStage(constants.StageSpecializedParsing, (pi+1)*100/len(pageTexts),
			fmt.Sprintf("tables extracted for page %d/%d", pi+1, len(pageTexts)))
	}
	return pooled
}

func joinPages(pageTexts []tables.PageText) string {
	var b strings.Builder
	for i, pt := range pageTexts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, tables.PageMarker, pt.Number)
		b.WriteString("\n")
		b.WriteString(pt.Text)
	}
	return b.String()
}
