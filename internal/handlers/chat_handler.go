package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// chatRequest is one inbound websocket frame: a question for the pipeline.
type chatRequest struct {
	Question string `json:"question"`
}

// chatFrame is one outbound websocket frame. The handler emits token frames
// while the answer streams, then one sources frame, one debug frame and a
// done frame. An error frame ends the turn instead when it fails.
type chatFrame struct {
	Type    string               `json:"type"` // token | sources | debug | done | error
	Content string               `json:"content,omitempty"`
	Sources []models.EvidenceRef `json:"sources,omitempty"`
	Debug   []models.DebugRecord `json:"debug,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// ChatHandler serves the chat websocket. Each connection gets its own
// pipeline and its own in-memory conversation; turns are processed one at a
// time from the read loop, so a connection never has more than one turn in
// flight and sessions never share sink or lifecycle state.
type ChatHandler struct {
	pipelines *chat.PipelineFactory
	logger    arbor.ILogger
}

func NewChatHandler(pipelines *chat.PipelineFactory, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		pipelines: pipelines,
		logger:    logger,
	}
}

// HandleWebSocket handles GET /ws/chat upgrade requests.
func (h *ChatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionID := common.NewSessionID()
	h.logger.Info().
		Str("session_id", sessionID).
		Str("remote", r.RemoteAddr).
		Msg("Chat session started")

	pipeline := h.pipelines.NewPipeline()
	var history []models.Turn

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Chat connection closed unexpectedly")
			}
			return
		}

		question := strings.TrimSpace(req.Question)
		if question == "" {
			h.writeFrame(conn, chatFrame{Type: "error", Error: "question is required"})
			continue
		}

		history = h.handleTurn(r, conn, pipeline, sessionID, question, history)
	}
}

// handleTurn runs one question through the pipeline and returns the updated
// conversation. The turn is only appended to the conversation when it
// completed, so a failed turn leaves the history untouched. Every exit path
// exhausts the stream and drains the sink, so the pipeline is back to Idle
// with an empty sink before the next question is read.
func (h *ChatHandler) handleTurn(r *http.Request, conn *websocket.Conn, pipeline *chat.Pipeline, sessionID, question string, history []models.Turn) []models.Turn {
	stream, err := pipeline.HandleTurn(r.Context(), question, history)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Turn rejected")
		h.writeFrame(conn, chatFrame{Type: "error", Error: err.Error()})
		return history
	}

	discard := func() {
		for range stream {
		}
		pipeline.DrainProvenance()
		pipeline.DrainDebug()
	}

	var answer strings.Builder
	for token := range stream {
		if token.Err != nil {
			h.logger.Error().Err(token.Err).Str("session_id", sessionID).Msg("Answer stream failed")
			h.writeFrame(conn, chatFrame{Type: "error", Error: token.Err.Error()})
			discard()
			return history
		}
		answer.WriteString(token.Text)
		if !h.writeFrame(conn, chatFrame{Type: "token", Content: token.Text}) {
			discard()
			return history
		}
	}

	sources := pipeline.DrainProvenance()
	debug := pipeline.DrainDebug()

	h.writeFrame(conn, chatFrame{Type: "sources", Sources: sources})
	h.writeFrame(conn, chatFrame{Type: "debug", Debug: debug})
	h.writeFrame(conn, chatFrame{Type: "done"})

	h.logger.Info().
		Str("session_id", sessionID).
		Int("answer_length", answer.Len()).
		Int("sources", len(sources)).
		Msg("Turn completed")

	now := time.Now()
	history = append(history,
		models.Turn{ID: common.NewTurnID(), Role: models.RoleHuman, Content: question, Created: now},
		models.Turn{ID: common.NewTurnID(), Role: models.RoleAI, Content: answer.String(), Attachments: sources, Debug: debug, Created: now},
	)
	return history
}

// writeFrame sends one frame, reporting whether the connection is still
// usable.
func (h *ChatHandler) writeFrame(conn *websocket.Conn, frame chatFrame) bool {
	if err := conn.WriteJSON(frame); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write websocket frame")
		return false
	}
	return true
}
