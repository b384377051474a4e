package runindex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/keboola/osiris/pkg/fsx"
)

// Latest reads the three-line latest/<slug>.txt pointer written by the
// compiler (§4.6, §3 Build Artifact Directory).
func Latest(contract *fsx.Contract, pipelineSlug string) (Pointer, error) {
	paths := contract.IndexPaths()
	path := paths.LatestDir + "/" + pipelineSlug + ".txt"
	return readPointer(path)
}

// LastCompile reads the process-wide last_compile.txt pointer.
func LastCompile(contract *fsx.Contract) (Pointer, error) {
	paths := contract.IndexPaths()
	return readPointer(paths.LastCompile)
}

func readPointer(path string) (Pointer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Pointer{}, ErrPointerNotFound
		}
		return Pointer{}, fmt.Errorf("%w: %v", ErrMalformedPointer, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		return Pointer{}, fmt.Errorf("%w: expected 3 lines, got %d", ErrMalformedPointer, len(lines))
	}
	return Pointer{ManifestPath: lines[0], ManifestHash: lines[1], Profile: lines[2]}, nil
}

// List streams records from runs.jsonl, applying filter, and returns
// them in file order (oldest first). A zero-value Filter returns every
// record. Malformed lines are skipped rather than aborting the scan,
// since runs.jsonl is append-only and a reader may race a writer's
// in-flight append.
func List(contract *fsx.Contract, filter Filter) ([]Record, error) {
	paths := contract.IndexPaths()
	records, err := scanJSONL(paths.RunsJSONL)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !matches(r, filter) {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func matches(r Record, f Filter) bool {
	if f.PipelineSlug != "" && r.PipelineSlug != f.PipelineSlug {
		return false
	}
	if f.Profile != "" && r.Profile != f.Profile {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// FindPreviousCompleted scans the pipeline's shard for the most recent
// completed (or legacy "success") run that is not excludeSessionID,
// ordered by started_at with ended_at as a fallback tiebreak (§4.6).
// manifestHash is accepted for signature parity with the spec's
// operation and is not itself a filter: the AIOP exporter's delta
// computation compares the returned record's ManifestHash against the
// current build's to decide whether the delta is same-manifest or
// cross-manifest. It returns nil, nil when no qualifying run exists.
func FindPreviousCompleted(contract *fsx.Contract, pipelineSlug, manifestHash, excludeSessionID string) (*Record, error) {
	_ = manifestHash
	paths := contract.IndexPaths()
	shardPath := paths.ByPipelineDir + "/" + pipelineSlug + ".jsonl"

	records, err := scanJSONL(shardPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var best *Record
	for i := range records {
		r := &records[i]
		if r.SessionID == excludeSessionID {
			continue
		}
		if r.Status != StatusCompleted && r.Status != "success" {
			continue
		}
		if best == nil || betterCandidate(r, best) {
			best = r
		}
	}
	return best, nil
}

func betterCandidate(r, best *Record) bool {
	if r.StartedAt != best.StartedAt {
		return r.StartedAt > best.StartedAt
	}
	return r.EndedAt > best.EndedAt
}

func scanJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue // tolerate a torn line from a racing writer
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return records, nil
}
