// Package geoip handles downloading, updating, and reading MaxMind GeoLite2 databases.
package geoip

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// EnsureDB checks if the GeoIP database exists at the specified path and if it is recent enough.
// If the file is missing or older than maxAge, it downloads a new copy from the provided URL.
// An empty url leaves whatever file is present untouched.
func EnsureDB(path, url string, maxAge time.Duration) error {
	if url == "" {
		return nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && time.Since(info.ModTime()) < maxAge:
		log.Info().Str("path", path).Msg("GeoIP database is up to date")
		return nil
	case err == nil:
		log.Info().Str("path", path).Msg("GeoIP database is outdated, updating...")
	case os.IsNotExist(err):
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	default:
		return err
	}

	return download(&http.Client{Timeout: 5 * time.Minute}, path, url)
}

// download fetches url into path through a temporary file renamed into place.
func download(client *http.Client, path, url string) error {
	resp, err := client.Get(url) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
