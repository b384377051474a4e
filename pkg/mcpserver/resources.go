package mcpserver

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// segmentRe whitelists the characters allowed in one "osiris://mcp/…"
// path segment (§4.11: "no substitution of user-supplied input into
// filesystem paths beyond a strict whitelist of segment characters").
// A segment may never contain "/", "..", or any character outside
// this set, so a resource URI can never escape its mapped directory.
var segmentRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const resourcePrefix = "osiris://mcp/"

// resolveResourcePath maps a "osiris://mcp/<kind>/<segment>" URI to a
// concrete filesystem path, validating every segment against
// segmentRe before it ever reaches a filepath.Join. kind selects which
// contract-defined root the remaining segments are resolved under;
// unknown kinds and malformed segments are rejected rather than
// silently resolved against an arbitrary directory.
func (s *Server) resolveResourcePath(uri string) (string, error) {
	rest := strings.TrimPrefix(uri, resourcePrefix)
	if rest == uri {
		return "", fmt.Errorf("mcpserver: unrecognized resource scheme %q", uri)
	}
	segments := strings.Split(rest, "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("mcpserver: malformed resource uri %q", uri)
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || !segmentRe.MatchString(seg) {
			return "", fmt.Errorf("mcpserver: invalid resource path segment %q", seg)
		}
	}

	kind, tail := segments[0], segments[1:]
	switch kind {
	case "sessions":
		if s.opts.Contract == nil {
			return "", fmt.Errorf("mcpserver: no filesystem contract configured")
		}
		if len(tail) != 1 {
			return "", fmt.Errorf("mcpserver: sessions resource takes exactly one segment")
		}
		return s.opts.Contract.SessionPath(tail[0]), nil
	default:
		return "", fmt.Errorf("mcpserver: unknown resource kind %q", kind)
	}
}

// registerResources wires the read-only "osiris://mcp/…" resource
// family. Static catalogs (schema, usecases, guide) are served by the
// oml_schema_get/usecases_list/guide_start tools directly rather than
// as separate resources, since they have no per-request parameters;
// the resource namespace exists for genuinely path-addressed,
// contract-backed data such as session memory files.
func (s *Server) registerResources() {
	mcpsdk.AddResource(s.sdk, &mcpsdk.Resource{
		URI:      "osiris://mcp/sessions/{id}",
		Name:     "session-memory",
		MIMEType: "application/x-ndjson",
	}, s.readSessionResource)
}

func (s *Server) readSessionResource(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	path, err := s.resolveResourcePath(req.Params.URI)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "application/x-ndjson",
				Text:     string(data),
			},
		},
	}, nil
}
