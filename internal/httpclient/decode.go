package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// DecodeBody wraps an upstream response body with the decoder matching its
// Content-Encoding. Supports gzip, deflate, and brotli (br); an empty or
// "identity" encoding returns the body unchanged. The returned ReadCloser
// closes the underlying body.
func DecodeBody(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &decodedBody{Reader: zr, underlying: body}, nil
	case "deflate":
		return &decodedBody{Reader: flate.NewReader(body), underlying: body}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(body), underlying: body}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}
}

type decodedBody struct {
	io.Reader
	underlying io.Closer
}

func (d *decodedBody) Close() error {
	if c, ok := d.Reader.(io.Closer); ok {
		_ = c.Close()
	}
	return d.underlying.Close()
}
