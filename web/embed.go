// Package web embeds the built dashboard assets.
package web

import "embed"

// Static embeds the compiled dashboard bundle. The frontend build copies
// its output here before the server binary is built.
//
//go:embed static/*
var Static embed.FS
