package staticfile

// mimeTable mirrors http.c's static mime[] array verbatim, including its
// fallback to "text/plain" for any unrecognized or absent extension.
var mimeTable = map[string]string{
	".html":  "text/html",
	".xml":   "text/xml",
	".xhtml": "application/xhtml+xml",
	".txt":   "text/plain",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".gif":   "image/gif",
	".jpg":   "image/jpeg",
	".css":   "text/css",
}

// contentType returns the MIME type for ext (as returned by filepath.Ext,
// i.e. including the leading dot), falling back to "text/plain" exactly as
// get_file_type does for nil/unmatched extensions.
func contentType(ext string) string {
	if t, ok := mimeTable[ext]; ok {
		return t
	}
	return "text/plain"
}
