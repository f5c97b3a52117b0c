package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/begari-sampath/crm-backend/internal/usecase"
)

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondUseCaseError maps the use-case error taxonomy onto HTTP: domain
// rejections are the caller's problem, technical ones are ours (logged,
// generic message, local state untouched).
func respondUseCaseError(w http.ResponseWriter, err error) {
	var domainErr *usecase.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusUnprocessableEntity
		switch domainErr.Code {
		case usecase.CodeLeadNotFound, usecase.CodeAgentNotFound:
			status = http.StatusNotFound
		}
		respondJSON(w, status, map[string]string{
			"error": domainErr.Message,
			"code":  domainErr.Code,
		})
		return
	}
	log.Printf("handler: %v", err)
	respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
}
