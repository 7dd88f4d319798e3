/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func getFavicon(cfg *Config) string {
	return `<link rel="icon" type="image/svg+xml" href="` + cfg.prefix + `/favicon.svg">
	<meta name="theme-color" content="#0b6e4f">`
}

func serveFavicon(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data, err := assets.ReadFile("assets/favicon.svg")
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}
