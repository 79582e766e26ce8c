// Package orchestrator runs the correction pipeline over one document:
// region split, line classification, chunking, sentence segmentation,
// batching, correction and reassembly.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/valpere/autocorrect/internal"
	"github.com/valpere/autocorrect/internal/chunker"
	"github.com/valpere/autocorrect/internal/detector"
	"github.com/valpere/autocorrect/internal/document"
	"github.com/valpere/autocorrect/internal/latex"
	"github.com/valpere/autocorrect/internal/placeholder"
	"github.com/valpere/autocorrect/internal/postprocess"
	"github.com/valpere/autocorrect/internal/segmenter"
	"github.com/valpere/autocorrect/internal/validator"
)

// ErrNoCorrector is returned when a batch needs the corrector and none is
// configured.
var ErrNoCorrector = errors.New("no corrector configured")

// Corrector returns the confirmed correction of one batch.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Memory stores accepted corrections across runs.
type Memory interface {
	GetCorrection(ctx context.Context, text, lang string) (string, bool, error)
	SaveCorrection(ctx context.Context, runID, text, lang, corrected string) error
}

type OrchestratorConfig struct {
	MaxChars int
	// Language drives sentence segmentation. Ignored when AutoLanguage is
	// set, except as the fallback for chunks whose language is not detected.
	Language      language.Tag
	AutoLanguage  bool
	ProtectInline bool
	// Postprocess applies postprocess.Clean to accepted corrections.
	// Without it they are used exactly as read from the corrector.
	Postprocess   bool
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMemory enables reuse of earlier accepted corrections.
func WithMemory(m Memory) Option {
	return func(o *Orchestrator) { o.memory = m }
}

// WithDetector sets the detector used for automatic language selection.
func WithDetector(d *detector.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithValidator enables the language drift warning.
func WithValidator(v *validator.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

type Orchestrator struct {
	corrector Corrector
	config    OrchestratorConfig
	logger    *zap.Logger
	memory    Memory
	detector  *detector.Detector
	validator *validator.Validator
}

func New(corrector Corrector, config OrchestratorConfig, opts ...Option) *Orchestrator {
	if config.MaxChars <= 0 {
		config.MaxChars = chunker.DefaultMaxChars
	}
	if config.Language == language.Und {
		config.Language = language.German
	}
	o := &Orchestrator{
		corrector: corrector,
		config:    config,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.config.AutoLanguage && o.detector == nil {
		o.detector = detector.New()
	}
	return o
}

// PlannedSegment is a segment of the working region together with the
// sentences and batches it will be corrected in. Preserved segments carry
// no sentences.
type PlannedSegment struct {
	latex.Segment
	Language  language.Tag
	Sentences []string
	Batches   []string
	// Learned is the number of abbreviations learned from the chunk.
	Learned int
}

// Plan is the correction work for a document.
type Plan struct {
	Regions  document.Regions
	Segments []PlannedSegment
}

// Chunks returns the number of correctable chunks.
func (p *Plan) Chunks() int {
	n := 0
	for _, s := range p.Segments {
		if s.Kind == latex.KindChunk {
			n++
		}
	}
	return n
}

// Batches returns the total number of batches.
func (p *Plan) Batches() int {
	n := 0
	for _, s := range p.Segments {
		n += len(s.Batches)
	}
	return n
}

// Plan splits the document and segments and batches every chunk without
// contacting the corrector.
func (o *Orchestrator) Plan(text string) *Plan {
	p := &Plan{Regions: document.Split(text)}
	if !p.Regions.HasWorking {
		return p
	}

	for _, seg := range latex.Segments(document.Lines(p.Regions.Working)) {
		ps := PlannedSegment{Segment: seg}
		if seg.Kind == latex.KindChunk {
			ps.Language = o.chunkLanguage(seg.Text)
			model := segmenter.Train(seg.Text, ps.Language)
			ps.Learned = model.Learned()
			ps.Sentences = model.Tokenize(seg.Text)
			ps.Batches = chunker.Batch(ps.Sentences, o.config.MaxChars)
		}
		p.Segments = append(p.Segments, ps)
	}
	return p
}

func (o *Orchestrator) chunkLanguage(chunk string) language.Tag {
	if !o.config.AutoLanguage {
		return o.config.Language
	}
	if tag, ok := o.detector.DetectTag(chunk); ok {
		return tag
	}
	return o.config.Language
}

// Result is the outcome of a run.
type Result struct {
	Text  string
	Stats internal.RunStats
}

// Pending returns the number of batches in plan that need the corrector,
// that is the non-blank batches not found in the correction memory.
func (o *Orchestrator) Pending(ctx context.Context, plan *Plan) int {
	n := 0
	for _, seg := range plan.Segments {
		for _, batch := range seg.Batches {
			if strings.TrimSpace(batch) == "" {
				continue
			}
			if o.memory != nil {
				_, found, err := o.memory.GetCorrection(ctx, batch, seg.Language.String())
				if err == nil && found {
					continue
				}
			}
			n++
		}
	}
	return n
}

// Run corrects the working region of text and returns the reassembled
// document. A document without a start marker is returned unchanged.
// Batches are corrected one at a time in document order.
func (o *Orchestrator) Run(ctx context.Context, runID, text string) (*Result, error) {
	return o.RunPlan(ctx, runID, o.Plan(text))
}

// RunPlan is Run for a document already planned with Plan.
func (o *Orchestrator) RunPlan(ctx context.Context, runID string, plan *Plan) (*Result, error) {
	res := &Result{}
	if !plan.Regions.HasWorking {
		o.logger.Info("No working region, document left unchanged",
			zap.String("marker", document.StartMarker))
		// Without a start marker every line belongs to the preamble.
		res.Text = plan.Regions.Preamble
		return res, nil
	}

	res.Stats.Chunks = plan.Chunks()
	pieces := make([]string, 0, len(plan.Segments))
	chunk := 0
	for _, seg := range plan.Segments {
		if seg.Kind == latex.KindPreserved {
			pieces = append(pieces, seg.Text)
			continue
		}
		chunk++
		o.logger.Info("Correcting chunk",
			zap.Int("chunk", chunk),
			zap.Int("chunks", res.Stats.Chunks),
			zap.String("language", seg.Language.String()),
			zap.Int("sentences", len(seg.Sentences)),
			zap.Int("batches", len(seg.Batches)),
			zap.Int("learned_abbreviations", seg.Learned))

		corrected := make([]string, 0, len(seg.Batches))
		for i, batch := range seg.Batches {
			out, err := o.correctBatch(ctx, runID, batch, seg.Language, &res.Stats)
			if err != nil {
				return res, fmt.Errorf("chunk %d batch %d: %w", chunk, i+1, err)
			}
			corrected = append(corrected, out)
		}
		pieces = append(pieces, strings.Join(corrected, " "))
	}

	res.Text = plan.Regions.Reassemble(pieces)
	return res, nil
}

func (o *Orchestrator) correctBatch(ctx context.Context, runID, batch string, lang language.Tag, stats *internal.RunStats) (string, error) {
	stats.Batches++
	if strings.TrimSpace(batch) == "" {
		return "", nil
	}
	key := lang.String()

	if o.memory != nil {
		cached, found, err := o.memory.GetCorrection(ctx, batch, key)
		if err != nil {
			o.logger.Warn("Correction memory lookup failed", zap.Error(err))
		} else if found {
			o.logger.Info("Using remembered correction", zap.Int("chars", chunker.Len(batch)))
			stats.Cached++
			return cached, nil
		}
	}

	send := batch
	var markers []string
	if o.config.ProtectInline {
		send, markers = placeholder.Protect(batch)
	}

	if o.corrector == nil {
		return "", ErrNoCorrector
	}
	out, err := o.corrector.Correct(ctx, send)
	if err != nil {
		return "", err
	}
	if o.config.Postprocess {
		out = postprocess.Clean(out)
	}

	if len(markers) > 0 {
		if missing := placeholder.Validate(out, markers); len(missing) > 0 {
			o.logger.Warn("Corrected text lost protected markup", zap.Ints("markers", missing))
		}
		out = placeholder.Restore(out, markers)
	}

	if o.validator != nil && out != "" {
		if ok, err := o.validator.IsValid(out, lang); !ok {
			o.logger.Warn("Corrected text changed language", zap.Error(err))
		}
	}

	stats.Corrected++
	if o.memory != nil && out != "" {
		if err := o.memory.SaveCorrection(ctx, runID, batch, key, out); err != nil {
			o.logger.Warn("Failed to remember correction", zap.Error(err))
		}
	}
	return out, nil
}
