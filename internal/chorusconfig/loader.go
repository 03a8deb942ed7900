package chorusconfig

import (
	"fmt"
	"os"

	"github.com/jinterlante1206/chorus/internal/obslog"
)

// LoadFile reads path, migrates legacy tables if present (writing a
// best-effort sibling .bak backup of the original file), and builds
// the Registry/Workflow/TimeoutPolicy triple. Backup-write failure is
// logged at Warn and never fails the load — the documented side
// effect is advisory, not load-bearing.
func LoadFile(path string, log *obslog.Logger) (*Loaded, error) {
	if log == nil {
		log = obslog.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chorusconfig: reading %s: %w", path, err)
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if doc.WorkflowIntegration.JSON == "" && doc.WorkflowIntegration.Analyzer != nil {
		if err := writeLegacyBackup(path, raw); err != nil {
			log.Warn("failed to write legacy config backup, continuing without it", "path", path, "error", err)
		}
	}

	return Load(doc)
}

func writeLegacyBackup(path string, raw []byte) error {
	return os.WriteFile(path+".bak", raw, 0o640)
}
