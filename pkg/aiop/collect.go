package aiop

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// readJSONL reads path as newline-delimited JSON objects, one per
// line. A missing file yields an empty slice, not an error: a
// cancelled run may close before metrics.jsonl ever gets a line.
func readJSONL(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("aiop: decoding %s: %w", path, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("aiop: reading %s: %w", path, err)
	}
	return out, nil
}

// collected is the raw material step 1 (Collect) gathers before
// redaction and layer assembly.
type collected struct {
	events      []map[string]any
	metrics     []map[string]any
	stepConfigs map[string]map[string]any // step id -> config, read from cfg/<step_id>.json
}

func collect(in BuildInput) (*collected, error) {
	events, err := readJSONL(in.RunLogPaths.Events)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	metrics, err := readJSONL(in.RunLogPaths.Metrics)
	if err != nil {
		return nil, err
	}

	stepConfigs := make(map[string]map[string]any, len(in.StepComponent))
	if in.Manifest != nil {
		for _, step := range in.Manifest.Pipeline.Steps {
			cfg, err := readStepConfig(in.RunLogPaths.CfgDir, step.ID)
			if err != nil {
				return nil, err
			}
			stepConfigs[step.ID] = cfg
		}
	}

	return &collected{events: events, metrics: metrics, stepConfigs: stepConfigs}, nil
}

func readStepConfig(cfgDir, stepID string) (map[string]any, error) {
	path := cfgDir + "/" + stepID + ".json"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("aiop: reading %s: %w", path, err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("aiop: decoding %s: %w", path, err)
	}
	return cfg, nil
}
