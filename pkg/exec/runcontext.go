package exec

// sessionContext is the subset of session.Context a Driver needs;
// declared locally so pkg/exec does not import pkg/session just to
// describe three method signatures.
type sessionContext interface {
	LogEvent(name string, fields map[string]any) error
	LogMetric(stepID, metric string, value float64, tags map[string]any) error
	ArtifactPath(stepID, name string) (string, error)
}

// sessionRunContext adapts a session.Context (or anything satisfying
// sessionContext) plus a cancellation channel into a RunContext, the
// same nil-safe wrapping-of-a-shared-service pattern tarsy's
// executeAgent uses to hand a scoped tool executor to an agent call
// rather than the agent reaching for a global.
type sessionRunContext struct {
	session   sessionContext
	cancelled <-chan struct{}
}

// NewSessionRunContext builds the RunContext a Driver sees during one
// Execute call, binding session's event/metric/artifact API to the
// adapter's own cancellation signal.
func NewSessionRunContext(session sessionContext, cancelled <-chan struct{}) RunContext {
	return &sessionRunContext{session: session, cancelled: cancelled}
}

func (r *sessionRunContext) LogEvent(name string, fields map[string]any) error {
	return r.session.LogEvent(name, fields)
}

func (r *sessionRunContext) LogMetric(stepID, metric string, value float64, tags map[string]any) error {
	return r.session.LogMetric(stepID, metric, value, tags)
}

func (r *sessionRunContext) ArtifactPath(stepID, name string) (string, error) {
	return r.session.ArtifactPath(stepID, name)
}

func (r *sessionRunContext) Cancelled() <-chan struct{} {
	return r.cancelled
}
