package repository

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

const tempFilePrefix = ".marketer-tmp-"

// encodeJSON renders v the way the archive files are kept on disk: two-space
// indent, non-ASCII and HTML characters left as is.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, goerr.Wrap(err, "failed to encode JSON")
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file in the same directory and renames
// it over filename, creating the directory when needed.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dir))
	}

	tmpFile, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("dir", dir))
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return goerr.Wrap(err, "failed to write temp file", goerr.V("path", tmpFile.Name()))
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return goerr.Wrap(err, "failed to sync temp file", goerr.V("path", tmpFile.Name()))
	}

	if err := tmpFile.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temp file", goerr.V("path", tmpFile.Name()))
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return goerr.Wrap(err, "failed to chmod temp file", goerr.V("path", tmpFile.Name()))
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return goerr.Wrap(err, "failed to replace file", goerr.V("path", filename))
	}

	return nil
}

// readJSONFile decodes filename into v. A missing file reports found=false
// with no error.
func readJSONFile(filename string, v any) (found bool, err error) {
	data, err := os.ReadFile(filename) // #nosec G304 -- path is operator configuration
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to read file", goerr.V("path", filename))
	}

	if err := json.Unmarshal(data, v); err != nil {
		return true, goerr.Wrap(err, "failed to parse JSON", goerr.V("path", filename))
	}
	return true, nil
}
