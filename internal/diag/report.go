package diag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/typesugar/typesugar/internal/ast"
)

// Fix is a suggested fix attached to a Diagnostic (spec.md §3).
type Fix struct {
	Description string `json:"description"`
	Replacement string `json:"replacement,omitempty"`
}

// Diagnostic is the canonical compile-time message (spec.md §3).
type Diagnostic struct {
	Code      string         `json:"code"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Primary   ast.Span       `json:"primary"`
	Secondary []ast.Span     `json:"secondary,omitempty"`
	Help      string         `json:"help,omitempty"`
	Fix       *Fix           `json:"fix,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// New constructs a Diagnostic, pinning its severity to the code's fixed
// severity regardless of what the caller asks for.
func New(code string, primary ast.Span, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityFor(code), Message: message, Primary: primary}
}

func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

func (d Diagnostic) WithFix(f Fix) Diagnostic {
	d.Fix = &f
	return d
}

func (d Diagnostic) WithData(key string, value any) Diagnostic {
	if d.Data == nil {
		d.Data = map[string]any{}
	}
	d.Data[key] = value
	return d
}

func (d Diagnostic) WithSecondary(spans ...ast.Span) Diagnostic {
	d.Secondary = append(d.Secondary, spans...)
	return d
}

// ReportError wraps a Diagnostic as a Go error, so an `error`-returning
// call site can both satisfy normal Go error handling and survive
// errors.As() unwrapping back into a structured Diagnostic.
type ReportError struct {
	Diag Diagnostic
}

func (e *ReportError) Error() string { return e.Diag.Code + ": " + e.Diag.Message }

// AsDiagnostic extracts a Diagnostic from an error chain, if present.
func AsDiagnostic(err error) (Diagnostic, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Diag, true
	}
	return Diagnostic{}, false
}

// Wrap returns a Diagnostic as a Go error.
func Wrap(d Diagnostic) error { return &ReportError{Diag: d} }

// ToJSON serializes a Diagnostic deterministically (sorted map keys via
// encoding/json's default struct-field ordering).
func (d Diagnostic) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(d)
	} else {
		data, err = json.MarshalIndent(d, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Bus accumulates diagnostics for one pipeline run. Per spec.md §5,
// "the diagnostic bus must serialize writes" across concurrently
// processed files; Bus does so with a mutex and is safe to share across
// goroutines processing distinct files.
type Bus struct {
	mu      sync.Mutex
	runID   string
	entries []Diagnostic
}

// NewBus creates a Bus stamped with a run identifier derived from seed
// (typically the file path a pipeline run is processing), so every
// diagnostic emitted during that run can be correlated back to it
// (Data["run_id"]) — and so re-running the pipeline over the same file
// twice, including a Cache Layer hit replaying a stored diagnostic
// list, reports the same run_id both times rather than a fresh random
// one (spec.md §4.5/§8 determinism). An empty seed falls back to a
// random run ID, for ad hoc Bus values with no associated file.
func NewBus(seed string) *Bus {
	return &Bus{runID: runIDFor(seed)}
}

func runIDFor(seed string) string {
	if seed == "" {
		return uuid.NewString()
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:16])
}

func (b *Bus) RunID() string { return b.runID }

// Report records a diagnostic, stamping it with the bus's run ID.
func (b *Bus) Report(d Diagnostic) {
	d = d.WithData("run_id", b.runID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, d)
}

// All returns a snapshot of accumulated diagnostics in report order.
func (b *Bus) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.entries))
	copy(out, b.entries)
	return out
}

// HasErrors reports whether any accumulated diagnostic is SevError.
func (b *Bus) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.entries {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}
