package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sundsvall.se/integration-eneo/internal/files"
)

type ChatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// ChatHandler forwards a message to Eneo. Any client failure becomes a 500
// carrying the error text; nothing is retried.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.eneo.SendChatMessage(r.Context(), user.UID, req.Message, req.Context)
	if err != nil {
		h.logger.Error("Chat request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, resp)
}

type IndexFileRequest struct {
	FileID json.RawMessage `json:"fileId"`
}

func (h *APIHandler) IndexFileHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req IndexFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	fileID, err := parseFileID(req.FileID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file id")
		return
	}

	node, err := h.files.GetByID(r.Context(), user.UID, fileID)
	switch {
	case errors.Is(err, files.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		h.logger.Error("File indexing failed", "file_id", fileID, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if node.Type != files.TypeFile {
		writeError(w, http.StatusBadRequest, "Not a file")
		return
	}

	content, err := h.files.ReadContent(user.UID, node)
	if err != nil {
		h.logger.Error("File indexing failed", "file_id", fileID, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp, err := h.eneo.IndexFile(r.Context(), user.UID, strconv.FormatInt(fileID, 10), node.Path, content)
	if err != nil {
		h.logger.Error("File indexing failed", "file_id", fileID, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, resp)
}

func (h *APIHandler) GetIndexedFilesHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	resp, err := h.eneo.GetIndexedFiles(r.Context(), user.UID)
	if err != nil {
		h.logger.Error("Failed to get indexed files", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, resp)
}

// RemoveFromIndexHandler has no remote counterpart yet.
func (h *APIHandler) RemoveFromIndexHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"status": "not_implemented"})
}
