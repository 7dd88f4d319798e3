/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Seednode/greenlight/roster"
	"github.com/dustin/go-humanize"
	"github.com/julienschmidt/httprouter"
)

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	return w.Write(data)
}

func writeError(cfg *Config, w http.ResponseWriter, status int, message string) {
	_, _ = writeJSON(cfg, w, status, SimpleMessage{Type: "error", Message: message})
}

func playerID(p httprouter.Params) (int, bool) {
	id, err := strconv.Atoi(p.ByName("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func serveRoster(cfg *Config, store *roster.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		players, err := store.All()
		if err != nil {
			errs <- err
			writeError(cfg, w, http.StatusInternalServerError, "Unable to load the roster.")

			return
		}

		written, err := writeJSON(cfg, w, http.StatusOK, players)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Roster (%s) to %s in %s",
			humanize.Bytes(uint64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func servePlayer(cfg *Config, store *roster.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, ok := playerID(p)
		if !ok {
			writeError(cfg, w, http.StatusBadRequest, "Player id must be a number.")

			return
		}

		player, found, err := store.Player(id)
		switch {
		case err != nil:
			errs <- err
			writeError(cfg, w, http.StatusInternalServerError, "Unable to load the roster.")
		case !found:
			writeError(cfg, w, http.StatusNotFound, "No such player.")
		default:
			if _, err := writeJSON(cfg, w, http.StatusOK, player); err != nil {
				errs <- err
			}
		}
	}
}

func serveSummary(cfg *Config, store *roster.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		summary, err := store.Summary()
		if err != nil {
			errs <- err
			writeError(cfg, w, http.StatusInternalServerError, "Unable to load the roster.")

			return
		}

		if _, err := writeJSON(cfg, w, http.StatusOK, summary); err != nil {
			errs <- err
		}
	}
}

// serveToggle answers with the summary after the toggle. Unknown ids leave
// the roster untouched and still return 200.
func serveToggle(cfg *Config, store *roster.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, ok := playerID(p)
		if !ok {
			writeError(cfg, w, http.StatusBadRequest, "Player id must be a number.")

			return
		}

		if err := store.Toggle(id); err != nil {
			errs <- err
			writeError(cfg, w, http.StatusInternalServerError, "The roster could not be saved.")

			return
		}

		logf(cfg, "BOARD: Toggle of player %d from %s", id, realIP(r))

		serveSummary(cfg, store, errs)(w, r, p)
	}
}

func serveReset(cfg *Config, store *roster.Store, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if err := store.Reset(); err != nil {
			errs <- err
			writeError(cfg, w, http.StatusInternalServerError, "The roster could not be saved.")

			return
		}

		logf(cfg, "BOARD: Reset from %s", realIP(r))

		serveSummary(cfg, store, errs)(w, r, p)
	}
}

func registerBoard(cfg *Config, store *roster.Store, h *Hub, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/controller", serveBoardPage(cfg, "controller", errs))
	mux.GET(cfg.prefix+"/display", serveBoardPage(cfg, "display", errs))
	mux.GET(cfg.prefix+"/controller/qr", serveControllerQR(cfg))

	mux.GET(cfg.prefix+"/api/players", serveRoster(cfg, store, errs))
	mux.GET(cfg.prefix+"/api/players/:id", servePlayer(cfg, store, errs))
	mux.POST(cfg.prefix+"/api/players/:id/toggle", serveToggle(cfg, store, errs))
	mux.POST(cfg.prefix+"/api/reset", serveReset(cfg, store, errs))
	mux.GET(cfg.prefix+"/api/summary", serveSummary(cfg, store, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, h))
}
