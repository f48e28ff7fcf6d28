// Package web holds the monitoring page of korsim.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

//go:embed dist/*
var dist embed.FS

// DevModeEnv names the environment variable that, when true, serves the page
// from the source tree so that edits show up without a rebuild.
const DevModeEnv = "KORFIELD_MONITOR_DEV"

// Handler serves the monitoring page. Responses are not cached, so a page
// reload always picks up the current assets.
func Handler() http.Handler {
	files := http.FileServer(Assets())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	})
}

// Assets returns the page files, embedded or from disk in dev mode.
func Assets() http.FileSystem {
	if devMode() {
		dir := sourceDist()
		fmt.Fprintf(os.Stderr, "Serving monitoring page from %s\n", dir)

		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func sourceDist() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the web package source")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))
	return err == nil && on
}
