package verification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExportContentType is the media type of exported artifacts.
const ExportContentType = "application/json; charset=utf-8"

// identifierKeys are tried in order to name the export file.
var identifierKeys = []string{"nin", "bvn", "number"}

// Artifact is a downloadable export of a result.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Export serialises the unmasked provider data of r as indented JSON.
func Export(r Result) (Artifact, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.RawData); err != nil {
		return Artifact{}, fmt.Errorf("encode export: %w", err)
	}

	return Artifact{
		Filename:    fmt.Sprintf("%s_verification_%s.json", r.DocumentType, exportIdentifier(r.RawData)),
		ContentType: ExportContentType,
		Content:     bytes.TrimRight(buf.Bytes(), "\n"),
	}, nil
}

func exportIdentifier(raw RawData) string {
	for _, key := range identifierKeys {
		if v, ok := raw.Get(key); ok && !v.Empty() {
			return v.String()
		}
	}
	return "result"
}

// Save writes the artifact into dir and returns the file path.
func (a Artifact) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(a.Filename)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, a.Content, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
