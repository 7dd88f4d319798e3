/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// controllerURL derives the public controller address, respecting TLS and
// X-Forwarded-Proto if present. Forwarded values other than http and https
// are ignored.
func controllerURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); proto {
	case "http", "https":
		scheme = proto
	}

	// We are at /.../controller/qr; strip trailing "/qr" to get the page.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	return scheme + "://" + r.Host + path
}

// serveControllerQR renders a PNG QR code so a phone can open the controller
// from the display screen.
func serveControllerQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		png, err := qrcode.Encode(controllerURL(r), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}
