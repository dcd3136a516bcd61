package server

import (
	"net/http"

	"github.com/jonathan/profile-wizard/internal/types"
)

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	skills, err := s.repo.ListSkills(r.Context(), userID)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, listOf(skills))
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "user")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	req, err := decodeEntry[types.SkillEntry](r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	created, err := s.repo.CreateSkill(r.Context(), userID, req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	skillID, err := parseID(r, "skill")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	req, err := decodeEntry[types.SkillEntry](r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	updated, err := s.repo.UpdateSkill(r.Context(), skillID, req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	skillID, err := parseID(r, "skill")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	if err := s.repo.DeleteSkill(r.Context(), skillID); err != nil {
		s.failure(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
