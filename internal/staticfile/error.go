package staticfile

import "fmt"

// BuildErrorResponse assembles an error response exactly as do_error does:
// a small HTML body, then a header carrying Connection: close and a matching
// Content-length. Unlike do_error's sprintf into fixed MAXLINE buffers, this
// just builds two byte slices — there is no fixed-size buffer to overflow.
func BuildErrorResponse(status int, cause, shortMsg, longMsg string) []byte {
	body := fmt.Sprintf(
		"<html><title>Server Error</title>"+
			"<body>\n%d: %s\n<p>%s: %s\n</p>"+
			"<hr><em>web server</em>\n</body></html>",
		status, shortMsg, longMsg, cause)

	header := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\n"+
			"Server: "+serverHeader+"\r\n"+
			"Content-type: text/html\r\n"+
			"Connection: close\r\n"+
			"Content-length: %d\r\n\r\n",
		status, shortMsg, len(body))

	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out
}
