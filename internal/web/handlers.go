package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marcelomvrocha/translation-system/internal/ingest"
	"github.com/marcelomvrocha/translation-system/internal/logging"
)

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDetectColumns runs column detection on an uploaded file.
//
// GET /api/files/{fileID}/columns?sheetName=&maxSampleRows=
func (s *Server) handleDetectColumns(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	sheetName := r.URL.Query().Get("sheetName")

	// The configured default applies when the client does not ask for a
	// specific sample size.
	maxSampleRows := s.cfg.Ingest.SampleRows
	if raw := r.URL.Query().Get("maxSampleRows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "maxSampleRows must be a positive integer")
			return
		}
		maxSampleRows = n
	}

	result, err := s.service.Detect(r.Context(), fileID, sheetName, maxSampleRows)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSaveConfiguration saves or replaces the column configuration for a
// (project, file) pair.
//
// POST /api/projects/{projectID}/files/{fileID}/column-config
func (s *Server) handleSaveConfiguration(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	fileID := chi.URLParam(r, "fileID")

	var cfg ingest.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.service.SaveConfiguration(r.Context(), projectID, fileID, cfg)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// handleGetConfiguration returns the saved configuration for a pair, or 404
// when none exists.
//
// GET /api/projects/{projectID}/files/{fileID}/column-config
func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	fileID := chi.URLParam(r, "fileID")

	cfg, err := s.service.GetConfiguration(r.Context(), projectID, fileID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if cfg == nil {
		respondError(w, r, ingest.NotFoundf("no configuration for file %s in project %s", fileID, projectID))
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// handleDeleteConfiguration removes a configuration owned by the project.
//
// DELETE /api/projects/{projectID}/column-configs/{configurationID}
func (s *Server) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	configurationID := chi.URLParam(r, "configurationID")

	if err := s.service.DeleteConfiguration(r.Context(), projectID, configurationID); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// handleParseWithConfiguration replays a stored configuration against the
// full file and ingests the extracted segments.
//
// POST /api/projects/{projectID}/files/{fileID}/parse-with-config
func (s *Server) handleParseWithConfiguration(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	fileID := chi.URLParam(r, "fileID")

	var body struct {
		ConfigurationID string `json:"configurationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ConfigurationID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "configurationId is required")
		return
	}

	result, err := s.service.ParseWithConfiguration(r.Context(), projectID, fileID, body.ConfigurationID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListPresets returns the built-in mapping presets.
//
// GET /api/presets
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListPresets())
}

// handleUploadFile accepts a multipart upload and stores it as a project
// attachment.
//
// POST /api/projects/{projectID}/files  (multipart field "file")
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Ingest.MaxFileSize); err != nil {
		writeErrorMessage(w, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	info, err := s.uploads.SaveUpload(r.Context(), projectID, header.Filename, mimeType, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("file uploaded",
		"project_id", projectID,
		"file_id", info.ID,
		"name", info.OriginalName,
		"size_bytes", info.SizeBytes,
	)

	writeJSON(w, http.StatusCreated, info)
}

// handleListFiles lists a project's attachments, newest first.
//
// GET /api/projects/{projectID}/files
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	files, err := s.uploads.ListByProject(r.Context(), projectID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if files == nil {
		files = []ingest.FileInfo{}
	}

	writeJSON(w, http.StatusOK, files)
}
