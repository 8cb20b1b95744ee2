// Package classifier inspects a document before the pipeline commits to an
// extraction strategy. It estimates whether a PDF is text-native (embedded
// text layer), image-native (scanned pages) or a mix, so that scanned
// documents go straight to recognition instead of burning time on text
// parsers that will come back empty.
package classifier

import (
	"log/slog"

	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/document"
)

// DocType is the estimated document type.
type DocType string

const (
	TextNative  DocType = "text_native"
	ImageNative DocType = "image_native"
	Hybrid      DocType = "hybrid"
	Unknown     DocType = "unknown"
)

// Confidence grades how sure the classifier is.
type Confidence string

const (
	Low    Confidence = "low"
	Medium Confidence = "medium"
	High   Confidence = "high"
)

// Result is computed once per document and never mutated; reclassification
// produces a new value.
type Result struct {
	DocumentType     DocType
	Confidence       Confidence
	TextDensityRatio float64 // pagesWithText / sampledPages
	AvgCharsPerPage  float64
	SampledPageCount int
}

// Classifier samples leading pages and applies a fixed decision table.
type Classifier struct {
	cfg    common.ClassifierConfig
	logger *slog.Logger
}

func New(cfg common.ClassifierConfig, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QuickSamplePages <= 0 {
		cfg.QuickSamplePages = 3
	}
	if cfg.LayoutSamplePages <= 0 {
		cfg.LayoutSamplePages = 5
	}
	if cfg.MinCharsForText <= 0 {
		cfg.MinCharsForText = 10
	}
	if cfg.HighChars == 0 {
		cfg.HighChars = 100
	}
	if cfg.LowChars == 0 {
		cfg.LowChars = 10
	}
	if cfg.MidChars == 0 {
		cfg.MidChars = 50
	}
	if cfg.HighCoverage == 0 {
		cfg.HighCoverage = 0.7
	}
	if cfg.LowCoverage == 0 {
		cfg.LowCoverage = 0.1
	}
	if cfg.LowMidCoverage == 0 {
		cfg.LowMidCoverage = 0.3
	}
	if cfg.MidCoverage == 0 {
		cfg.MidCoverage = 0.5
	}
	if cfg.InkRatioThreshold == 0 {
		cfg.InkRatioThreshold = 0.02
	}
	return &Classifier{cfg: cfg, logger: logger}
}

// Classify runs a cheap structural pass over the first pages and, only when
// that pass is not high-confidence, a slower layout-aware pass that also
// renders pages to check for raster content. The short-circuit is
// deliberate: a high-confidence quick answer never re-samples.
func (c *Classifier) Classify(src document.Source) Result {
	n := src.NumPages()
	if n == 0 {
		return Result{DocumentType: Unknown, Confidence: High}
	}

	res := c.samplePass(src, min(c.cfg.QuickSamplePages, n), false)
	c.logger.Info("classify.quick",
		"type", res.DocumentType,
		"confidence", res.Confidence,
		"avg_chars", res.AvgCharsPerPage,
		"coverage", res.TextDensityRatio,
	)
	if res.Confidence == High {
		return res
	}

	res = c.samplePass(src, min(c.cfg.LayoutSamplePages, n), true)
	c.logger.Info("classify.layout",
		"type", res.DocumentType,
		"confidence", res.Confidence,
		"avg_chars", res.AvgCharsPerPage,
		"coverage", res.TextDensityRatio,
	)
	return res
}

func (c *Classifier) samplePass(src document.Source, sample int, layout bool) Result {
	var totalChars, pagesWithText, imagePages int
	for i := 0; i < sample; i++ {
		text, err := src.PageText(i)
		if err != nil {
			c.logger.Debug("classify.page_text.failed", "page", i+1, "error", err)
			continue
		}
		totalChars += len(text)
		if len(text) > c.cfg.MinCharsForText {
			pagesWithText++
		}
		if layout {
			ratio, err := src.PageInkRatio(i)
			if err == nil && ratio > c.cfg.InkRatioThreshold {
				imagePages++
			}
		}
	}

	avg := float64(totalChars) / float64(sample)
	coverage := float64(pagesWithText) / float64(sample)
	res := Result{
		TextDensityRatio: coverage,
		AvgCharsPerPage:  avg,
		SampledPageCount: sample,
	}

	// Decision table, first match wins.
	switch {
	case avg > c.cfg.HighChars && coverage > c.cfg.HighCoverage:
		res.DocumentType, res.Confidence = TextNative, High
	case avg < c.cfg.LowChars || coverage < c.cfg.LowCoverage:
		res.DocumentType, res.Confidence = ImageNative, High
	case avg < c.cfg.MidChars && coverage < c.cfg.LowMidCoverage:
		res.DocumentType, res.Confidence = ImageNative, Medium
	case avg > c.cfg.MidChars && coverage > c.cfg.MidCoverage:
		res.DocumentType, res.Confidence = TextNative, Medium
	case layout && imagePages*2 > sample && avg < c.cfg.MidChars:
		// Layout pass only: pages dominated by raster content with little
		// text are scans even when the char metrics are inconclusive.
		res.DocumentType, res.Confidence = ImageNative, Medium
	default:
		res.DocumentType, res.Confidence = Hybrid, Medium
	}
	return res
}

// Strategy names the processing order the orchestrator commits to.
type Strategy string

const (
	TextFirst        Strategy = "text_first"
	RecognitionFirst Strategy = "recognition_first"
	HybridStrategy   Strategy = "hybrid"
)

// SelectStrategy maps a classification to a processing strategy.
// Unreadable or inconclusive documents fall back to hybrid.
func SelectStrategy(res Result) Strategy {
	switch {
	case res.DocumentType == ImageNative && (res.Confidence == High || res.Confidence == Medium):
		return RecognitionFirst
	case res.DocumentType == TextNative && (res.Confidence == High || res.Confidence == Medium):
		return TextFirst
	default:
		return HybridStrategy
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
