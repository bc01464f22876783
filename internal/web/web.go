// Package web embeds the page served at "/".
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var assets embed.FS

// Assets returns the page files rooted at the static directory.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves the page and its scripts.
func Handler() http.Handler {
	return http.FileServer(http.FS(Assets()))
}
