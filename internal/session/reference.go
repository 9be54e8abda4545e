package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KiranM189/Capstone/internal/monitoring"
)

const latestReferenceName = "reference_latest.json"

// saveReference writes the reference under a timestamped name, for
// history, and as the stable latest file the next gateway start seeds
// from.
func saveReference(dir string, ref Reference) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("reference dir: %w", err)
	}

	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reference: %w", err)
	}

	stamped := filepath.Join(dir, fmt.Sprintf("reference_%d.json", ref.CompletedAt.Unix()))
	if err := os.WriteFile(stamped, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", stamped, err)
	}

	latest := filepath.Join(dir, latestReferenceName)
	if err := os.WriteFile(latest, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", latest, err)
	}

	monitoring.Logf("session: saved reference to %s", stamped)
	return nil
}

// LoadReference reads one saved reference file.
func LoadReference(path string) (Reference, error) {
	var ref Reference
	data, err := os.ReadFile(path)
	if err != nil {
		return ref, fmt.Errorf("read reference: %w", err)
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return ref, fmt.Errorf("parse reference %s: %w", path, err)
	}
	return ref, nil
}

// seedFromDisk loads the latest persisted reference into the correction
// table. Only called from New, before the session is shared. A missing
// file starts uncalibrated; a corrupt one logs and does the same.
func (s *Session) seedFromDisk() {
	path := filepath.Join(s.refDir, latestReferenceName)
	ref, err := LoadReference(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			monitoring.Logf("session: seed reference: %v", err)
		}
		return
	}

	n := 0
	for label, lr := range ref.Labels {
		q, ok := lr.Orientation.Normalized()
		if !ok {
			monitoring.Logf("session: seed reference: label %s: zero-norm orientation skipped", label)
			continue
		}
		s.refs[label] = q
		s.quality[label] = lr.LabelQuality
		n++
	}
	if n > 0 {
		s.state = StateCalibrated
		s.calibratedAt = ref.CompletedAt
		monitoring.Logf("session: seeded %d label references from %s", n, path)
	}
}
