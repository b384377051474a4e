package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/keboola/osiris/pkg/clock"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/masking"
	"github.com/keboola/osiris/pkg/registry"
)

// Context owns one run's I/O for its lifetime: events.jsonl,
// metrics.jsonl, status.json, and artifacts/<step_id>/ (§4.7). Exactly
// one Context exists per run; it is created by the runner once the
// run-log directory has been resolved from the filesystem contract.
type Context struct {
	paths        fsx.RunLogPaths
	sessionID    string
	pipelineSlug string
	profile      string

	reg          *registry.Registry
	redactor     *masking.Redactor
	stepComponent map[string]string // step id -> component name, for per-step secret maps

	mu           sync.Mutex
	closed       bool
	eventsFile   *os.File
	eventsWriter *bufio.Writer
	metricsFile  *os.File
	metricsWriter *bufio.Writer
	logFile      *os.File
	logger       *slog.Logger

	createdArtifactDirs map[string]bool
}

// Options configures a new Context.
type Options struct {
	Paths         fsx.RunLogPaths
	SessionID     string
	PipelineSlug  string
	Profile       string
	Registry      *registry.Registry // may be nil if no component carries secrets
	StepComponent map[string]string  // step id -> component name, from the manifest
}

// New creates the run-log directory tree and opens events.jsonl and
// metrics.jsonl for append. Both files are opened once and held for
// the Context's lifetime (§3 Lifecycle: "owned by exactly one Session
// Context"), unlike the run index's per-call opens which must survive
// concurrent writers across separate processes.
func New(opts Options) (*Context, error) {
	if err := fsx.EnsureDir(opts.Paths.Dir); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, opts.Paths.Dir, err)
	}
	if err := fsx.EnsureDir(opts.Paths.CfgDir); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, opts.Paths.CfgDir, err)
	}

	eventsFile, err := os.OpenFile(opts.Paths.Events, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening events.jsonl: %v", ErrWriteFailed, err)
	}
	metricsFile, err := os.OpenFile(opts.Paths.Metrics, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		eventsFile.Close()
		return nil, fmt.Errorf("%w: opening metrics.jsonl: %v", ErrWriteFailed, err)
	}
	logFile, err := os.OpenFile(opts.Paths.Log, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		eventsFile.Close()
		metricsFile.Close()
		return nil, fmt.Errorf("%w: opening osiris.log: %v", ErrWriteFailed, err)
	}
	logger := slog.New(slog.NewTextHandler(logFile, nil)).With("session", opts.SessionID)

	stepComponent := opts.StepComponent
	if stepComponent == nil {
		stepComponent = map[string]string{}
	}

	return &Context{
		paths:               opts.Paths,
		sessionID:           opts.SessionID,
		pipelineSlug:        opts.PipelineSlug,
		profile:             opts.Profile,
		reg:                 opts.Registry,
		redactor:            masking.New(),
		stepComponent:       stepComponent,
		eventsFile:          eventsFile,
		eventsWriter:        bufio.NewWriter(eventsFile),
		metricsFile:         metricsFile,
		metricsWriter:       bufio.NewWriter(metricsFile),
		logFile:             logFile,
		logger:              logger,
		createdArtifactDirs: map[string]bool{},
	}, nil
}

// Logger returns the per-run human-readable logger, backed by
// osiris.log (§3 Run-Log Directory). Every other layer that runs
// inside this session's scope (the execution adapter, the AIOP
// exporter) logs through this, the way tarsy threads a *slog.Logger
// obtained via slog.With at construction time rather than reaching for
// a global logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// LogEvent appends one JSONL line to events.jsonl: {ts, session, event,
// ...fields}, keys sorted, secrets masked (§4.7). fields may be nil.
func (c *Context) LogEvent(name string, fields map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	line := map[string]any{
		"ts":      clock.NowMS(),
		"session": c.sessionID,
		"event":   name,
	}
	for k, v := range c.redactFields(fields) {
		line[k] = v
	}
	return c.appendLine(c.eventsWriter, c.eventsFile, line)
}

// LogMetric appends one JSONL line to metrics.jsonl: {ts, session,
// step_id, metric, value, ...tags} (§4.7).
func (c *Context) LogMetric(stepID, metric string, value float64, tags map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	line := map[string]any{
		"ts":      clock.NowMS(),
		"session": c.sessionID,
		"step_id": stepID,
		"metric":  metric,
		"value":   value,
	}
	for k, v := range c.redactFields(tags) {
		line[k] = v
	}
	return c.appendLine(c.metricsWriter, c.metricsFile, line)
}

// ArtifactPath creates artifacts/<step_id>/ lazily and returns the
// absolute path for name within it (§4.7).
func (c *Context) ArtifactPath(stepID, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}

	dir := filepath.Join(c.paths.ArtifactsDir, stepID)
	if !c.createdArtifactDirs[stepID] {
		if err := fsx.EnsureDir(dir); err != nil {
			return "", fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, dir, err)
		}
		c.createdArtifactDirs[stepID] = true
	}
	return filepath.Join(dir, name), nil
}

// WriteStatus atomically replaces status.json with the run's current
// terminal status and rolled-up totals (§4.7).
func (c *Context) WriteStatus(status Status, totals Totals) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	doc := StatusDocument{
		Status:    status,
		Totals:    totals,
		UpdatedAt: clock.FormatRFC3339Milli(clock.NowMS()),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encoding status.json: %v", ErrWriteFailed, err)
	}
	if err := fsx.AtomicWrite(c.paths.Status, data); err != nil {
		return fmt.Errorf("%w: writing status.json: %v", ErrWriteFailed, err)
	}
	return nil
}

// Close flushes and closes the event and metric streams and emits a
// final run_end event (§4.7). Close is idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	line := map[string]any{
		"ts":      clock.NowMS(),
		"session": c.sessionID,
		"event":   "run_end",
	}
	appendErr := c.appendLine(c.eventsWriter, c.eventsFile, line)

	var flushErr error
	if err := c.eventsWriter.Flush(); err != nil {
		flushErr = err
	}
	if err := c.metricsWriter.Flush(); err != nil && flushErr == nil {
		flushErr = err
	}
	_ = c.eventsFile.Sync()
	_ = c.metricsFile.Sync()
	_ = c.logFile.Sync()
	_ = c.eventsFile.Close()
	_ = c.metricsFile.Close()
	_ = c.logFile.Close()
	c.closed = true

	if appendErr != nil {
		return appendErr
	}
	if flushErr != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, flushErr)
	}
	return nil
}

// redactFields applies the field-name denylist to every value, and
// additionally pointer-redacts a "config" field using the secret map
// of the component bound to fields["step_id"], when both are present
// (§4.7: "secrets masked by the redactor using the registry's secret
// map for each step's component").
func (c *Context) redactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	redacted, ok := c.redactor.RedactValue(fields).(map[string]any)
	if !ok {
		return nil
	}

	stepID, _ := redacted["step_id"].(string)
	if stepID == "" {
		return redacted
	}
	component, ok := c.stepComponent[stepID]
	if !ok || c.reg == nil {
		return redacted
	}
	cfg, ok := redacted["config"].(map[string]any)
	if !ok {
		return redacted
	}
	secretMap, err := c.reg.SecretMap(component)
	if err != nil {
		return redacted
	}
	pointers := append(append([]string{}, secretMap.Secrets...), secretMap.RedactionExtras...)
	redacted["config"] = c.redactor.RedactConfig(cfg, pointers)
	return redacted
}

// appendLine marshals line to JSON, appends it with a trailing LF, and
// flushes so the write is durable before the call returns. encoding/json
// sorts map[string]any keys lexicographically, which is what gives
// every event and metric line its sorted-keys guarantee (§3 Session
// Event / Metric) without a hand-rolled canonicalizer.
func (c *Context) appendLine(w *bufio.Writer, f *os.File, line map[string]any) error {
	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("%w: encoding line: %v", ErrWriteFailed, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return f.Sync()
}
