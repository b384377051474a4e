package aiop

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/fsx"
)

// writeAnnexShard writes one NDJSON overflow shard (§4.9 step 7:
// "write overflow to annex/{timeline,metrics,errors}.ndjson"). The
// shard is named <name>.ndjson, or <name>.ndjson.gz when gzip
// compression is configured.
func writeAnnexShard(annexDir, name string, records []map[string]any, compress config.AnnexCompress) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	if err := fsx.EnsureDir(annexDir); err != nil {
		return "", err
	}

	var buf []byte
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("aiop: encoding annex record: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	path := filepath.Join(annexDir, name+".ndjson")
	switch compress {
	case config.AnnexCompressNone, "":
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return "", err
		}
	case config.AnnexCompressGzip:
		path += ".gz"
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		gw := gzip.NewWriter(f)
		if _, err := gw.Write(buf); err != nil {
			return "", err
		}
		if err := gw.Close(); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("aiop: annex compression %q has no wired codec", compress)
	}
	return path, nil
}
