package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws/chat", s.app.ChatHandler.HandleWebSocket)

	// API routes - uploaded files
	mux.HandleFunc("/api/files", s.handleFilesRoute)
	mux.HandleFunc("/api/files/", s.app.FileHandler.DeleteHandler)

	// Health
	mux.HandleFunc("/healthz", s.app.StatusHandler.HealthHandler)

	return mux
}

// handleFilesRoute dispatches /api/files by method: GET lists, POST uploads.
func (s *Server) handleFilesRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.FileHandler.ListHandler(w, r)
	case http.MethodPost:
		s.app.FileHandler.UploadHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
