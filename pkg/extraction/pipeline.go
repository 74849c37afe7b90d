package extraction

import (
	"context"
	"errors"
	"sync"

	"github.com/earlyguard/platform/pkg/common/logger"
)

// State is the extraction pipeline's lifecycle position.
type State string

const (
	StateIdle        State = "idle"
	StateRecognizing State = "recognizing"
	StateParsed      State = "parsed"
	StateConfirmed   State = "confirmed"
)

// Recognizer is the OCR collaborator: an opaque mapping from an image to
// recognized text plus a fractional-progress stream.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, progress func(percent int)) (string, error)
}

var (
	ErrSuperseded   = errors.New("recognition superseded by a newer submission")
	ErrNoCandidates = errors.New("no candidates awaiting confirmation")
)

// NoticeManualEntry is surfaced when the OCR collaborator fails and the user
// should fall back to typing values in.
const NoticeManualEntry = "Could not read text from the image. Please enter values manually."

// Pipeline orchestrates one upload slot: submit image, track recognition
// progress, parse candidates, then gate them behind explicit confirmation.
// Re-submitting before a prior recognition completes invalidates the prior
// run via a monotonically increasing generation counter: only the outcome
// matching the latest generation is applied.
type Pipeline struct {
	mu         sync.Mutex
	recognizer Recognizer
	parser     *Parser

	state      State
	generation uint64
	progress   int
	candidates Candidates
	notice     string
}

func NewPipeline(recognizer Recognizer, parser *Parser) *Pipeline {
	return &Pipeline{
		recognizer: recognizer,
		parser:     parser,
		state:      StateIdle,
	}
}

// Submit runs recognition for image and blocks until this submission either
// settles or is superseded. A collaborator failure is not an error here: the
// pipeline still lands in StateParsed with an empty candidate set and a
// user-facing notice, so manual entry always remains available.
func (p *Pipeline) Submit(ctx context.Context, image []byte) error {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.state = StateRecognizing
	p.progress = 0
	p.candidates = nil
	p.notice = ""
	p.mu.Unlock()

	text, err := p.recognizer.Recognize(ctx, image, func(percent int) {
		p.observeProgress(gen, percent)
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		// A newer image owns the slot now; this outcome must not apply.
		return ErrSuperseded
	}

	p.state = StateParsed
	p.progress = 100

	if err != nil {
		logger.Log.WithError(err).Warn("Recognition failed, falling back to manual entry")
		p.candidates = Candidates{}
		p.notice = NoticeManualEntry
		return nil
	}

	p.candidates = p.parser.Parse(text)
	return nil
}

// observeProgress applies a progress event for generation gen. Events for
// stale generations are dropped, and the reported percentage never moves
// backwards (regressions are coalesced away).
func (p *Pipeline) observeProgress(gen uint64, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation || p.state != StateRecognizing {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > p.progress {
		p.progress = percent
	}
}

// Confirm hands back the parsed candidates for merging into canonical state.
// Only an explicit confirmation releases candidates; the caller owns the
// actual merge.
func (p *Pipeline) Confirm() (Candidates, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateParsed {
		return nil, ErrNoCandidates
	}

	confirmed := p.candidates.Clone()
	p.state = StateConfirmed
	p.candidates = nil
	p.notice = ""
	return confirmed, nil
}

// Cancel unconditionally discards any pending candidates and returns the
// pipeline to idle. Cancelling also invalidates an in-flight recognition.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.state = StateIdle
	p.progress = 0
	p.candidates = nil
	p.notice = ""
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Candidates returns a copy of the parsed candidates, or nil when none are
// awaiting confirmation.
func (p *Pipeline) Candidates() Candidates {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.candidates == nil {
		return nil
	}
	return p.candidates.Clone()
}

func (p *Pipeline) Notice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}
