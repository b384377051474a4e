package runindex

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/keboola/osiris/pkg/fsx"
)

// pipeBufBytes is the conservative POSIX PIPE_BUF floor: a single
// write(2) of at most this many bytes to an O_APPEND-opened file is
// atomic with respect to other writers on the same file, even across
// processes, on every POSIX filesystem. Lines at or under this size
// need no extra locking; larger lines fall back to an advisory
// in-process mutex (§4.6 correctness note).
const pipeBufBytes = 4096

var appendLocks sync.Map // path string -> *sync.Mutex

func lockFor(path string) *sync.Mutex {
	v, _ := appendLocks.LoadOrStore(path, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Append writes record as a single JSON line with a trailing LF to
// both runs.jsonl and by_pipeline/<slug>.jsonl, creating parent
// directories as needed. Each file is opened O_APPEND and fsynced
// before Append returns (§4.6).
func Append(contract *fsx.Contract, record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", ErrAppendFailed, err)
	}
	line = append(line, '\n')

	paths := contract.IndexPaths()
	if err := fsx.EnsureDir(paths.ByPipelineDir); err != nil {
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}

	shardPath := paths.ByPipelineDir + "/" + record.PipelineSlug + ".jsonl"

	if err := appendLine(paths.RunsJSONL, line); err != nil {
		return fmt.Errorf("%w: runs.jsonl: %v", ErrAppendFailed, err)
	}
	if err := appendLine(shardPath, line); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAppendFailed, shardPath, err)
	}
	return nil
}

func appendLine(path string, line []byte) error {
	if len(line) > pipeBufBytes {
		mu := lockFor(path)
		mu.Lock()
		defer mu.Unlock()
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return err
	}
	return f.Sync()
}
