package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Every data handler follows the same shape: validate the session, call one
// gateway operation with the internal token, surface upstream failure as a
// 500. No retries — re-expanding the node retries.

func (s *Server) handleHubs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.validSession(w, r)
	if !ok {
		return
	}

	hubs, err := s.data.Hubs(r.Context(), sess.InternalToken)
	if err != nil {
		s.logger.Error("listing hubs failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to fetch hubs")

		return
	}

	writeJSON(w, http.StatusOK, hubs)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.validSession(w, r)
	if !ok {
		return
	}

	hubID := chi.URLParam(r, "hubID")

	projects, err := s.data.Projects(r.Context(), hubID, sess.InternalToken)
	if err != nil {
		s.logger.Error("listing projects failed",
			slog.String("hub_id", hubID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch projects")

		return
	}

	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleContents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.validSession(w, r)
	if !ok {
		return
	}

	hubID := chi.URLParam(r, "hubID")
	projectID := chi.URLParam(r, "projectID")
	folderID := r.URL.Query().Get("folder_id")

	entries, err := s.data.Contents(r.Context(), hubID, projectID, folderID, sess.InternalToken)
	if err != nil {
		s.logger.Error("listing contents failed",
			slog.String("project_id", projectID),
			slog.String("folder_id", folderID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch contents")

		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.validSession(w, r)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "projectID")
	itemID := chi.URLParam(r, "itemID")

	versions, err := s.data.Versions(r.Context(), projectID, itemID, sess.InternalToken)
	if err != nil {
		s.logger.Error("listing versions failed",
			slog.String("project_id", projectID),
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch versions")

		return
	}

	writeJSON(w, http.StatusOK, versions)
}
