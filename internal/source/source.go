// Package source implements dataset acquisition: an ordered list of remote
// and local sources tried until one yields a parseable table.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

const (
	// DefaultOWIDURL is the primary OWID export, DefaultOWIDMirrorURL the
	// GitHub mirror of the same file.
	DefaultOWIDURL       = "https://covid.ourworldindata.org/data/owid-covid-data.csv"
	DefaultOWIDMirrorURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/owid-covid-data.csv"

	// DefaultBackupPath is where the loader persists the raw payload after a
	// successful load, and doubles as the final fallback source.
	DefaultBackupPath = "local_backup/owid-covid-data.csv"

	DefaultHTTPTimeout = 30 * time.Second

	// maxBodyBytes bounds how much of a response the loader will buffer. The
	// upstream export is well under 100 MiB.
	maxBodyBytes = 512 << 20
)

// Source yields one candidate payload for the dataset.
type Source interface {
	// Name identifies the source in logs and error chains.
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches the dataset from a fixed URL.
type HTTPSource struct {
	url    string
	client pipeline.HTTPClient
}

// NewHTTPSource builds an HTTP source. A nil client gets a default one with
// DefaultHTTPTimeout.
func NewHTTPSource(url string, client pipeline.HTTPClient) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Name() string { return s.url }

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, pipeline.NewNetworkError("fetch_dataset", "failed to create request", err).
			WithContext("url", s.url)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pipeline.NewNetworkError("fetch_dataset", "request failed", err).
			WithContext("url", s.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pipeline.NewNetworkError("fetch_dataset",
			fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil).
			WithContext("url", s.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, pipeline.NewNetworkError("fetch_dataset", "failed to read response body", err).
			WithContext("url", s.url)
	}
	if len(body) > maxBodyBytes {
		return nil, pipeline.NewNetworkError("fetch_dataset", "response exceeds size limit", nil).
			WithContext("url", s.url).WithContext("limit_bytes", maxBodyBytes)
	}
	return body, nil
}

// DefaultSources returns the standard acquisition order: primary OWID
// export, GitHub mirror, then the local backup from a previous run.
func DefaultSources(client pipeline.HTTPClient, backupPath string) []Source {
	if backupPath == "" {
		backupPath = DefaultBackupPath
	}
	return []Source{
		NewHTTPSource(DefaultOWIDURL, client),
		NewHTTPSource(DefaultOWIDMirrorURL, client),
		NewFileSource(backupPath),
	}
}

// FileSource reads the dataset from a local path. A missing file is an
// ordinary soft failure, reported like any other source error.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, pipeline.NewFileIOError("read_local_dataset", "failed to read local dataset", err).
			WithContext("path", s.path)
	}
	return data, nil
}
