package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code written to it.
type ClientWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// NewClientWriter creates a new ClientWriter. The status code defaults to 200.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records the status code before writing it. Only the first call is recorded.
func (c *ClientWriter) WriteHeader(code int) {
	if c.wroteHeader {
		return
	}
	c.statusCode = code
	c.wroteHeader = true
	c.ResponseWriter.WriteHeader(code)
}

func (c *ClientWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.ResponseWriter.Write(b)
}

// StatusCode returns the status code that was written.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}

// WroteHeader reports whether a status code has been written.
func (c *ClientWriter) WroteHeader() bool {
	return c.wroteHeader
}
