package app

import (
	"log"
	"mime"
)

// Some minimal container images ship no /etc/mime.types, which breaks
// Content-Type detection for the SPA bundle assets.
func init() {
	ensureMimeType(".css", "text/css; charset=utf-8")
	ensureMimeType(".mjs", "text/javascript; charset=utf-8")
	ensureMimeType(".svg", "image/svg+xml")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: register mime type for %s: %v", ext, err)
	}
}
