package http

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/application/pipeline"
	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// streamMessage is one frame on the analysis stream. Type is "result" while
// properties are completing and "summary" for the final ranked batch.
type streamMessage struct {
	Type    string                         `json:"type"`
	Result  *negotiation.OpportunityResult `json:"result,omitempty"`
	Summary *pipeline.BatchResult          `json:"summary,omitempty"`
	Error   string                         `json:"error,omitempty"`
}

// handleAnalyzeStream upgrades to a websocket, reads one BatchRequest, and
// streams per-property results as they complete, followed by the final
// personalized ranking. One request per connection.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req pipeline.BatchRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(streamMessage{Type: "error", Error: "invalid request: " + err.Error()})
		return
	}
	if len(req.Items) == 0 {
		_ = conn.WriteJSON(streamMessage{Type: "error", Error: "at least one property is required"})
		return
	}

	// Gorilla connections allow one concurrent writer; results arrive from
	// the batch worker pool.
	var writeMu sync.Mutex
	send := func(msg streamMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			log.Warn().Err(err).Msg("Websocket write failed")
		}
	}

	batch, err := s.engine.AnalyzeBatchStream(r.Context(), req, func(result negotiation.OpportunityResult) {
		send(streamMessage{Type: "result", Result: &result})
	})
	if err != nil {
		send(streamMessage{Type: "error", Error: err.Error()})
		return
	}

	send(streamMessage{Type: "summary", Summary: batch})
}
