package app

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/KiranM189/Capstone/internal/hub"
	"github.com/KiranM189/Capstone/internal/link"
	"github.com/KiranM189/Capstone/internal/quat"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/session"
)

// stateResponse is the /api/state document: everything a dashboard needs
// to render the gateway without joining the pose stream.
type stateResponse struct {
	Capture                string                           `json:"capture"`
	State                  session.State                    `json:"state"`
	CalibrationRemainingMS int64                            `json:"calibration_remaining_ms"`
	Sensors                int                              `json:"sensors"`
	Consumers              int                              `json:"consumers"`
	ActiveLabels           []sensor.Label                   `json:"active_labels"`
	Pose                   map[sensor.Label]quat.Quaternion `json:"pose"`
	Reference              session.Reference                `json:"reference"`
	Stats                  session.Stats                    `json:"stats"`
}

// NewStateHandler serves the gateway status endpoint. All fields come
// from mutex-guarded snapshots, so the handler is safe alongside live
// delivery.
func NewStateHandler(sess *session.Session, links *link.Server, h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := sess.Stats()
		resp := stateResponse{
			Capture:                stats.Capture,
			State:                  stats.State,
			CalibrationRemainingMS: sess.CollectingRemaining().Milliseconds(),
			Sensors:                links.Sensors(),
			Consumers:              h.ClientCount(),
			ActiveLabels:           links.ActiveLabels(),
			Pose:                   sess.Pose(),
			Reference:              sess.Reference(),
			Stats:                  stats,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("web: state encode error: %v", err)
		}
	}
}
