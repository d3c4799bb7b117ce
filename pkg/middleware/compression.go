package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter compresses the body of JSON and text responses.
// Other content types are written through untouched.
type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter  *gzip.Writer
	statusCode  int
	wroteHeader bool
	compress    bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = statusCode

	h := w.Header()
	if CompressibleContentType(h.Get("Content-Type")) && h.Get("Content-Encoding") == "" {
		w.compress = true
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
	}
	h.Add("Vary", "Accept-Encoding")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	return w.gzipWriter.Write(b)
}

// Gzip compresses responses for clients that accept gzip. Used on the admin
// endpoints, which return whole transaction trees and cron logs.
func Gzip(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gz := gzipWriterPool.Get().(*gzip.Writer)
			gz.Reset(w)
			gzipW := &gzipResponseWriter{ResponseWriter: w, gzipWriter: gz}
			defer func() {
				if gzipW.compress {
					if err := gz.Close(); err != nil {
						logger.Debug("Gzip close failed", zap.String("path", r.URL.Path), zap.Error(err))
					}
				}
				gz.Reset(io.Discard)
				gzipWriterPool.Put(gz)
			}()

			next.ServeHTTP(gzipW, r)
		})
	}
}

// CompressibleContentType reports whether a response of contentType is worth compressing
func CompressibleContentType(contentType string) bool {
	for _, prefix := range []string{"text/", "application/json", "application/xml"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
