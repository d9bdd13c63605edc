package fileserve

// DefaultContentType is served for extensions missing from the table.
const DefaultContentType = "text/plain"

var contentTypes map[string]string

func init() {
	contentTypes = map[string]string{
		"css":  "text/css",
		"csv":  "text/csv",
		"gif":  "image/gif",
		"htm":  "text/html",
		"html": "text/html",
		"ico":  "image/x-icon",
		"jpeg": "image/jpeg",
		"jpg":  "image/jpeg",
		"js":   "text/javascript",
		"json": "application/json",
		"pdf":  "application/pdf",
		"png":  "image/png",
		"svg":  "image/svg+xml",
		"toml": "application/toml",
		"txt":  "text/plain",
		"wasm": "application/wasm",
		"xml":  "application/xml",
	}
}

// ContentType returns the MIME type for p's extension.
func ContentType(p SanitizedPath) string {
	if ct, ok := contentTypes[p.Ext()]; ok {
		return ct
	}
	return DefaultContentType
}
