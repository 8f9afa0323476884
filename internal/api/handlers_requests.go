package api

import (
	"encoding/json"
	"net/http"

	"shareit/internal/models"
)

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var request models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.requests.CreateRequest(r.Context(), uid, request.Description)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := s.requests.GetRequestByID(r.Context(), uid, requestID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, err := s.requests.GetRequestsByUser(r.Context(), uid)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if requests == nil {
		requests = []models.ItemRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// listAllRequests returns requests from everyone except the caller.
func (s *Server) listAllRequests(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, err := s.requests.GetAllRequests(r.Context(), uid)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if requests == nil {
		requests = []models.ItemRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}
