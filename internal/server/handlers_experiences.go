package server

import (
	"net/http"

	"github.com/jonathan/profile-wizard/internal/types"
)

func (s *Server) handleListExperiences(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	experiences, err := s.repo.ListExperiences(r.Context(), userID)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, listOf(experiences))
}

func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	req, err := decodeEntry[types.ExperienceEntry](r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	created, err := s.repo.CreateExperience(r.Context(), userID, req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	experienceID, err := parseID(r, "experience")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	req, err := decodeEntry[types.ExperienceEntry](r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	updated, err := s.repo.UpdateExperience(r.Context(), experienceID, req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	experienceID, err := parseID(r, "experience")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	if err := s.repo.DeleteExperience(r.Context(), experienceID); err != nil {
		s.failure(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
