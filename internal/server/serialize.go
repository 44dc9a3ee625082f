package server

import (
	"net/http"

	"github.com/hasanerken/aiqueue/internal/jsonutil"
)

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()

	return jsonutil.Decode(r.Body, v)
}

func encode(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return jsonutil.Encode(w, v)
}
