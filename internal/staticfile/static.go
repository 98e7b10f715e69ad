package staticfile

import "path/filepath"

// ContentTypeForPath returns the MIME type for filename's extension,
// matching get_file_type(strrchr(filename, '.')).
func ContentTypeForPath(filename string) string {
	return contentType(filepath.Ext(filename))
}
