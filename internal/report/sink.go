package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/moolen/remedy/internal/logging"
	"github.com/moolen/remedy/internal/models"
)

// FileSink writes one report file per incident into a directory. Write
// failures are returned as PersistenceError; callers log and continue.
type FileSink struct {
	dir    string
	logger *logging.Logger
}

// NewFileSink creates a sink writing into dir. "" means the current
// working directory.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{
		dir:    dir,
		logger: logging.GetLogger("report.sink"),
	}
}

// Write persists an incident's report text and returns the file path.
// The directory is created on demand. The file name carries the
// incident timestamp plus a short unique suffix so two incidents
// handled within the same second cannot collide.
func (s *FileSink) Write(incident models.Incident) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &models.PersistenceError{Path: s.dir, Err: err}
	}

	name := fmt.Sprintf("incident_report_%s_%s.md",
		incident.Timestamp.Format("20060102_150405"), shortID(incident.ID))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(incident.Report), 0o644); err != nil {
		return "", &models.PersistenceError{Path: path, Err: err}
	}

	s.logger.Info("Incident report saved: %s", path)
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
