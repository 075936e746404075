package maintenance

import (
	"fmt"
	"regexp"

	"github.com/agentmem/amem/format"
	"github.com/agentmem/amem/graph"
)

// CaptureMode controls how much of an external adapter's traffic
// auto-capture is allowed to turn into nodes (spec §4.9).
type CaptureMode int

const (
	// CaptureOff disables auto-capture entirely.
	CaptureOff CaptureMode = iota
	// CaptureSafe only captures recognized structured fields: feedback,
	// summary, note.
	CaptureSafe
	// CaptureFull captures broader free-form content, excluding anything
	// that duplicates a direct memory_add payload.
	CaptureFull
)

var safeFields = map[string]bool{
	"feedback": true,
	"summary":  true,
	"note":     true,
}

// DefaultCaptureByteCap truncates captured content at 4 KiB.
const DefaultCaptureByteCap = 4096

// redaction patterns applied (in order) before a captured payload is
// stored, stripping substrings that look like secrets or identifying
// paths rather than attempting full PII detection.
var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	secretPattern = regexp.MustCompile(`(?i)(sk|pk|api|key|token|secret)[-_][a-zA-Z0-9]{12,}`)
	pathPattern   = regexp.MustCompile(`(?:/[\w.\-]+){2,}`)
)

const redactedPlaceholder = "[redacted]"

// Redact strips email-like, secret-key-like, and filesystem-path-like
// substrings from content, replacing each with a fixed placeholder.
func Redact(content string) string {
	content = emailPattern.ReplaceAllString(content, redactedPlaceholder)
	content = secretPattern.ReplaceAllString(content, redactedPlaceholder)
	content = pathPattern.ReplaceAllString(content, redactedPlaceholder)
	return content
}

// CaptureConfig controls one adapter's auto-capture behavior.
type CaptureConfig struct {
	Mode     CaptureMode
	Redact   bool
	ByteCap  int
	Kind     format.EventKind // node kind assigned to captured content, typically EventFact
}

// DefaultCaptureConfig returns a safe-mode config with redaction enabled
// and the default byte cap.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{Mode: CaptureSafe, Redact: true, ByteCap: DefaultCaptureByteCap, Kind: format.EventFact}
}

// Payload is one field captured from an external adapter, e.g. a
// "feedback" or "summary" field from an incoming prompt.
type Payload struct {
	Field   string
	Content string
	// DuplicatesMemoryAdd marks a full-mode payload that the caller already
	// wrote via a direct memory_add call, so auto-capture must skip it.
	DuplicatesMemoryAdd bool
}

// Accepts reports whether p should be captured under cfg's mode.
func (cfg CaptureConfig) Accepts(p Payload) bool {
	switch cfg.Mode {
	case CaptureOff:
		return false
	case CaptureSafe:
		return safeFields[p.Field]
	case CaptureFull:
		return !p.DuplicatesMemoryAdd
	default:
		return false
	}
}

// Prepare applies redaction (if enabled) and the byte cap to p.Content,
// returning the content to store. Call only after Accepts reports true.
func (cfg CaptureConfig) Prepare(p Payload) string {
	content := p.Content
	if cfg.Redact {
		content = Redact(content)
	}
	cap := cfg.ByteCap
	if cap <= 0 {
		cap = DefaultCaptureByteCap
	}
	if len(content) > cap {
		content = content[:cap]
	}
	return content
}

// Capture applies cfg to p and, if accepted, appends a new node to g under
// the given session. It returns the new node id and true, or 0 and false
// if the payload was rejected by cfg's mode.
func Capture(g *graph.Graph, cfg CaptureConfig, session uint32, timestamp int64, p Payload) (uint32, bool, error) {
	if !cfg.Accepts(p) {
		return 0, false, nil
	}
	content := cfg.Prepare(p)
	id, err := g.AddNode(cfg.Kind, session, 1.0, timestamp, content, map[string]string{"captured_field": p.Field}, nil)
	if err != nil {
		return 0, false, fmt.Errorf("maintenance: capture %q: %w", p.Field, err)
	}
	return id, true, nil
}
