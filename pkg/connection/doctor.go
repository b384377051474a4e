package connection

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/keboola/osiris/pkg/registry"
)

// DoctorResult is the outcome of probing one resolved connection,
// shaped after tarsy's database.HealthStatus: a status plus the time
// the probe took, rather than a free-form diagnostic blob.
type DoctorResult struct {
	Reference string        `json:"reference"`
	Healthy   bool          `json:"healthy"`
	Latency   int64         `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
}

const defaultProbeTimeout = 5 * time.Second

// Probe dials the connection named by ref using resolved (already
// env-expanded) config, per the component's declared doctor
// capability. It never logs or returns resolved itself, only a
// healthy/unhealthy verdict and latency, so a caller may safely print
// a DoctorResult without redaction.
func Probe(ctx context.Context, ref Reference, doctor *registry.DoctorCapability, resolved map[string]any) (*DoctorResult, error) {
	if doctor == nil {
		return nil, fmt.Errorf("%w: %s", ErrProbeUnsupported, ref.String())
	}

	ctx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	start := time.Now()
	var err error
	switch doctor.Protocol {
	case "tcp":
		err = probeTCP(ctx, doctor, resolved)
	case "http":
		err = probeHTTP(ctx, doctor, resolved)
	default:
		return nil, fmt.Errorf("%w: unknown doctor protocol %q", ErrProbeUnsupported, doctor.Protocol)
	}
	latency := time.Since(start)

	result := &DoctorResult{Reference: ref.String(), Healthy: err == nil, Latency: latency.Milliseconds()}
	if err != nil {
		result.Error = err.Error()
	}
	return result, nil
}

func probeTCP(ctx context.Context, doctor *registry.DoctorCapability, resolved map[string]any) error {
	hostField := doctor.HostField
	if hostField == "" {
		hostField = "host"
	}
	portField := doctor.PortField
	if portField == "" {
		portField = "port"
	}

	host := stringField(resolved, hostField)
	if host == "" {
		return fmt.Errorf("resolved config has no %q field to dial", hostField)
	}
	port := stringField(resolved, portField)
	if port == "" {
		return fmt.Errorf("resolved config has no %q field to dial", portField)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return err
	}
	return conn.Close()
}

func probeHTTP(ctx context.Context, doctor *registry.DoctorCapability, resolved map[string]any) error {
	urlField := doctor.URLField
	if urlField == "" {
		urlField = "url"
	}
	url := stringField(resolved, urlField)
	if url == "" {
		return fmt.Errorf("resolved config has no %q field to probe", urlField)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// stringField reads a top-level string field from a resolved config
// map, coercing a numeric port value to its string form.
func stringField(cfg map[string]any, key string) string {
	v, ok := cfg[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%d", int64(val))
	default:
		return ""
	}
}
