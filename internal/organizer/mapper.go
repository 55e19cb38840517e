package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseluismolina/BPMaster/internal/media"
	"github.com/joseluismolina/BPMaster/internal/services"
)

// Mapper mirrors the input directory structure under an output root. The
// output file keeps the input's extension; there is no transcoding.
type Mapper struct {
	inputRoot  string
	outputRoot string
}

// New validates the root pairing and returns a mapper. Validation failures
// are configuration errors: they abort the run before any job executes.
func New(inputRoot, outputRoot string) (*Mapper, error) {
	absIn, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "resolve input root", "", err)
	}
	absOut, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "resolve output root", "", err)
	}
	if err := validateRoots(absIn, absOut); err != nil {
		return nil, err
	}
	return &Mapper{inputRoot: absIn, outputRoot: absOut}, nil
}

func validateRoots(absIn, absOut string) error {
	if absIn == absOut {
		return services.Wrap(services.ErrConfiguration, "organizer", "validate roots",
			fmt.Sprintf("output directory %q equals the input directory; refusing to overwrite the input tree", absOut), nil)
	}
	rel, err := filepath.Rel(absIn, absOut)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return services.Wrap(services.ErrConfiguration, "organizer", "validate roots",
			fmt.Sprintf("output directory %q is nested inside the input directory %q", absOut, absIn), nil)
	}
	return nil
}

// OutputRoot returns the absolute output root.
func (m *Mapper) OutputRoot() string {
	return m.outputRoot
}

// Resolve returns the destination path for a discovered file: the output
// root joined with the file's relative path.
func (m *Mapper) Resolve(ref media.AudioFileRef) string {
	return filepath.Join(m.outputRoot, filepath.FromSlash(ref.RelPath))
}

// Ensure resolves the destination path and creates any missing intermediate
// directories.
func (m *Mapper) Ensure(ref media.AudioFileRef) (string, error) {
	dest := m.Resolve(ref)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create output directory for %s: %w", ref.RelPath, err)
	}
	return dest, nil
}
