package filicious

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// extensionToMIME covers types http.DetectContentType cannot sniff from
// content alone.
var extensionToMIME = map[string]string{
	".css":  "text/css",
	".csv":  "text/csv",
	".js":   "text/javascript",
	".json": "application/json",
	".md":   "text/markdown",
	".svg":  "image/svg+xml",
	".tar":  "application/x-tar",
	".txt":  "text/plain",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// GuessMIMEType determines the MIME type of a file from its path and
// leading content. Adapters that cannot read content locally must not
// call this; they declare the probe unsupported instead of guessing.
func GuessMIMEType(path string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionToMIME[ext]; ok {
		return mt
	}

	if len(data) > 0 {
		mt := http.DetectContentType(data)
		// Content sniffing only distinguishes text from binary; prefer a
		// more specific extension-derived type when one exists.
		if mt != "application/octet-stream" && !strings.HasPrefix(mt, "text/plain") {
			return stripMIMEParams(mt)
		}
	}

	if mt := mime.TypeByExtension(ext); mt != "" {
		return stripMIMEParams(mt)
	}

	if len(data) > 0 {
		return stripMIMEParams(http.DetectContentType(data))
	}

	return "application/octet-stream"
}

// GuessMIMEEncoding determines the character encoding of file content:
// the charset parameter reported by content sniffing, or "binary" when
// the content does not look like text.
func GuessMIMEEncoding(data []byte) string {
	if len(data) == 0 {
		return "binary"
	}

	mt := http.DetectContentType(data)
	if _, params, err := mime.ParseMediaType(mt); err == nil {
		if cs, ok := params["charset"]; ok {
			return strings.ToLower(cs)
		}
	}
	if strings.HasPrefix(mt, "text/") {
		return "us-ascii"
	}
	return "binary"
}

// stripMIMEParams drops any parameters from a media type value.
func stripMIMEParams(mt string) string {
	if idx := strings.Index(mt, ";"); idx != -1 {
		mt = mt[:idx]
	}
	return strings.TrimSpace(mt)
}
