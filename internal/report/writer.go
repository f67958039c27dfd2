package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloudpatrol/awsscan/internal/models"
)

// WriteReport serialises records as a JSON array with 4-space indentation
// and writes it to path, creating or overwriting the file. The whole
// report is marshalled in memory first; there is no streaming and no
// temp-file-then-rename step.
func WriteReport(records []models.FindingRecord, path string) error {
	if records == nil {
		records = []models.FindingRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}
