package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/registry"
)

const maxRequestBody = 1 << 20

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	caller := callerIdentity(r)

	content, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.registry.Publish(r.Context(), vars["namespace"], vars["name"], vars["version"], content, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	content, err := s.registry.GetContent(r.Context(), vars["namespace"], vars["name"], vars["version"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeContent(w, vars["version"], content.SkillID, content.NamespaceID, content.Content)
}

func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	latest, err := s.registry.GetLatest(r.Context(), vars["namespace"], vars["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeContent(w, latest.Version, latest.SkillID, latest.NamespaceID, latest.Content)
}

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	meta, err := s.registry.GetMetadata(r.Context(), vars["namespace"], vars["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	versions, err := s.registry.ListVersions(r.Context(), vars["namespace"], vars["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) handleListSkillsInNamespace(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	names, err := s.registry.ListSkillsInNamespace(r.Context(), vars["namespace"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": names})
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	refs, err := s.registry.ListSkills(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": refs})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	profile, err := s.registry.GetProfile(r.Context(), vars["namespace"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	caller := callerIdentity(r)

	var update registry.ProfileUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&update); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", "malformed JSON body")
		return
	}

	profile, err := s.registry.UpdateProfile(r.Context(), vars["namespace"], update, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func callerIdentity(r *http.Request) registry.Identity {
	return registry.Identity{Namespace: r.Header.Get(IdentityHeader)}
}

func writeContent(w http.ResponseWriter, version, skillID, namespaceID string, content []byte) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("X-Skillhub-Version", version)
	w.Header().Set("X-Skillhub-Skill-Id", skillID)
	w.Header().Set("X-Skillhub-Namespace-Id", namespaceID)
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// writeError maps engine error kinds to HTTP status codes. Unkinded errors
// are store transport faults and surface as 500 without internal detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := registry.KindOf(err)

	var status int
	switch kind {
	case registry.KindNotFound:
		status = http.StatusNotFound
	case registry.KindVersionAlreadyExists:
		status = http.StatusConflict
	case registry.KindForbidden:
		status = http.StatusForbidden
	case registry.KindInvalidInput:
		status = http.StatusBadRequest
	case registry.KindCorruptStorageData:
		status = http.StatusInternalServerError
	default:
		logger.G(r.Context()).WithError(err).Error("unexpected registry error")
		writeJSONError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	writeJSONError(w, status, string(kind), err.Error())
}
