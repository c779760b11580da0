// Package web holds the dashboard page that the monitor serves.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevEnvVar names the environment variable that makes the monitor read the
// dashboard from the source tree instead of the embedded copy.
const DevEnvVar = "FMU_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// GetAssets returns the dashboard files.
func GetAssets() http.FileSystem {
	if devMode() {
		_, self, _, ok := runtime.Caller(0)
		if !ok {
			log.Panic("cannot locate the dashboard sources")
		}

		dir := filepath.Join(filepath.Dir(self), "dist")
		log.Printf("monitor dashboard served from %s", dir)

		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		log.Panic(err)
	}

	return http.FS(sub)
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevEnvVar))
	return err == nil && on
}
