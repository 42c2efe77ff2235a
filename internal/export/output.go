package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeOutputs performs the WritingOutputs stage's filesystem writes:
// the primary binary (atomic rename), the optional manifest sidecar, and
// the optional live-reload binary. Every target directory is created
// first; any failure is wrapped so the caller can surface it as an
// export/io/* diagnostic rather than letting the pipeline panic or leave
// a half-written file in place.
func writeOutputs(binary []byte, manifest *Manifest, opts Options) error {
	if err := writeFileAtomic(opts.BinaryOutputPath, binary); err != nil {
		return fmt.Errorf("writing binary output: %w", err)
	}

	if opts.WriteManifest {
		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling manifest: %w", err)
		}
		if err := writeFileAtomic(opts.BinaryOutputPath+".manifest.json", data); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
	}

	if opts.LiveBinaryOutputPath != "" {
		if err := writeLiveBinary(opts.LiveBinaryOutputPath, binary); err != nil {
			return fmt.Errorf("writing live binary output: %w", err)
		}
	}

	return nil
}

// writeFileAtomic creates path's parent directory if needed, writes data
// to a temp file alongside path, and renames it into place so a reader
// never observes a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %q to %q: %w", tmp, path, err)
	}
	return nil
}
