// Package artifact reads and writes the files shared between training and
// serving: the model, its metadata document and the location registry.
package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/ljjun8453/BLEP-Contest/internal/domain"
	"github.com/ljjun8453/BLEP-Contest/internal/gbm"
)

var validate = validator.New()

// SaveModel writes a model file.
func SaveModel(path string, m *gbm.Model) error {
	return writeAtomic(path, m.Save)
}

// LoadModel reads a model file written by SaveModel.
func LoadModel(path string) (*gbm.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	m, err := gbm.Load(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

// SaveMetadata writes the metadata document as indented UTF-8 JSON.
func SaveMetadata(path string, meta *domain.Metadata) error {
	return writeAtomic(path, encodeJSON(meta))
}

// SaveBundle writes a model and its metadata as a pair. Both files are fully
// written before either is renamed into place, so a failed write leaves the
// previous pair untouched.
func SaveBundle(modelPath, metaPath string, m *gbm.Model, meta *domain.Metadata) error {
	model, err := stage(modelPath, m.Save)
	if err != nil {
		return err
	}
	defer model.discard()

	metadata, err := stage(metaPath, encodeJSON(meta))
	if err != nil {
		return err
	}
	defer metadata.discard()

	if err := model.commit(); err != nil {
		return err
	}
	return metadata.commit()
}

func encodeJSON(v any) func(io.Writer) error {
	return func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// LoadMetadata reads and validates a metadata document.
func LoadMetadata(path string) (*domain.Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta domain.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", path, err)
	}
	return &meta, nil
}

// LoadLocations reads the location registry: a JSON array of
// {"x": lon, "y": lat, "address": "..."} objects.
func LoadLocations(path string) ([]domain.Location, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	return ParseLocations(raw)
}

// ParseLocations decodes and validates a location registry document.
func ParseLocations(raw []byte) ([]domain.Location, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var locs []domain.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	for i := range locs {
		if err := validate.Struct(locs[i]); err != nil {
			return nil, fmt.Errorf("location %d (%q): %w", i, locs[i].Address, err)
		}
	}
	return locs, nil
}

// SaveLocations writes a location registry in the format LoadLocations reads.
func SaveLocations(path string, locs []domain.Location) error {
	for i := range locs {
		if err := validate.Struct(locs[i]); err != nil {
			return fmt.Errorf("location %d (%q): %w", i, locs[i].Address, err)
		}
	}
	return writeAtomic(path, encodeJSON(locs))
}

// writeAtomic writes through a temporary file in the target directory and
// renames it into place, so readers never observe a partial artifact.
func writeAtomic(path string, write func(io.Writer) error) error {
	st, err := stage(path, write)
	if err != nil {
		return err
	}
	defer st.discard()
	return st.commit()
}

// staged is a fully written temporary file waiting to be renamed over path.
type staged struct {
	tmp  string
	path string
}

func stage(path string, write func(io.Writer) error) (staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return staged{}, fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return staged{}, fmt.Errorf("create temp file: %w", err)
	}
	st := staged{tmp: tmp.Name(), path: path}

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		st.discard()
		return staged{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		st.discard()
		return staged{}, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		st.discard()
		return staged{}, fmt.Errorf("close %s: %w", path, err)
	}
	return st, nil
}

func (s staged) commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}

// discard removes the temporary file; after a commit there is nothing left
// to remove.
func (s staged) discard() {
	_ = os.Remove(s.tmp)
}
