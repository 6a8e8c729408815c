// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MinCompressSize is the smallest response body worth compressing.
const MinCompressSize = 1024

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// gzipResponseWriter buffers the first MinCompressSize bytes and decides
// whether to compress once it knows the body is large enough.
type gzipResponseWriter struct {
	http.ResponseWriter
	buf        bytes.Buffer
	gz         *gzip.Writer
	status     int
	decided    bool
	compressed bool
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.decided {
		if w.compressed {
			return w.gz.Write(b)
		}
		return w.ResponseWriter.Write(b)
	}

	w.buf.Write(b)
	if w.buf.Len() < MinCompressSize {
		return len(b), nil
	}
	if err := w.decide(true); err != nil {
		return 0, err
	}
	return len(b), nil
}

// decide flushes the buffered prefix, compressed or not.
func (w *gzipResponseWriter) decide(compress bool) error {
	w.decided = true
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if compress && compressible(w.Header().Get("Content-Type")) && w.Header().Get("Content-Encoding") == "" {
		w.compressed = true
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.Header().Add("Vary", "Accept-Encoding")
		w.gz = gzipWriterPool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
		w.ResponseWriter.WriteHeader(w.status)
		_, err := w.gz.Write(w.buf.Bytes())
		return err
	}

	w.ResponseWriter.WriteHeader(w.status)
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	return err
}

func (w *gzipResponseWriter) Flush() {
	if !w.decided {
		_ = w.decide(w.buf.Len() >= MinCompressSize)
	}
	if w.compressed {
		_ = w.gz.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *gzipResponseWriter) close() {
	if !w.decided {
		_ = w.decide(false)
	}
	if w.compressed {
		_ = w.gz.Close()
		gzipWriterPool.Put(w.gz)
	}
}

func compressible(contentType string) bool {
	for _, prefix := range []string{"application/json", "text/csv", "text/plain"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// Compression gzips JSON, CSV and text responses of at least
// MinCompressSize bytes when the client accepts gzip. Evidence media is
// passed through as-is.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: w}
		defer gzw.close()
		next.ServeHTTP(gzw, r)
	})
}
