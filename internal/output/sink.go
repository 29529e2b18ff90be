package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// Sink writes one harvest's records to every configured format under the
// output directory.
type Sink struct {
	config *config.Config
	logger logging.Logger
}

// NewSink creates a file sink.
func NewSink(cfg *config.Config, logger logging.Logger) *Sink {
	return &Sink{
		config: cfg,
		logger: logger,
	}
}

// SaveAll writes the records once per configured format and returns the
// paths written. An empty record set writes nothing. A failing format is
// logged and skipped so the remaining formats still get their files.
func (s *Sink) SaveAll(records []models.ReviewRecord) ([]string, error) {
	if len(records) == 0 {
		s.logger.Warn("No records to save, skipping output files")
		return nil, nil
	}

	if err := os.MkdirAll(s.config.Output.Dir, 0o755); err != nil {
		return nil, utils.NewPersistenceFailureError("creating output directory", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	var paths []string
	for _, format := range s.config.Output.Formats {
		name := fmt.Sprintf("%s_reviews_%s.%s", s.config.Scraper.TargetBrand, timestamp, format)
		path := filepath.Join(s.config.Output.Dir, name)

		if err := s.saveOne(records, Format(format), path); err != nil {
			s.logger.Error("Failed to save output file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}

		paths = append(paths, path)
		s.logger.Info("Saved reviews", map[string]interface{}{
			"path":  path,
			"count": len(records),
		})
	}
	return paths, nil
}

func (s *Sink) saveOne(records []models.ReviewRecord, format Format, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return utils.NewPersistenceFailureError("creating output file", err)
	}
	defer file.Close()

	writer, err := NewWriter(file, format)
	if err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Close()
}
