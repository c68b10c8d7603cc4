package controllers

import (
	"net/http"

	"github.com/motu-crew/crewboard/pkg/httpapi"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		panic(err)
	}
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	_ = httpapi.WriteRequestError(w, r, status, code, message)
}
