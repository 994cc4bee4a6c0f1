package handlers

import "net/http"

func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Generation.Usage())
}
