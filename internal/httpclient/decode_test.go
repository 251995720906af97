package httpclient

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
)

const payload = `{"id": "chatcmpl-1", "choices": []}`

func readAll(t *testing.T, body io.ReadCloser, encoding string) string {
	t.Helper()
	decoded, err := DecodeBody(body, encoding)
	if err != nil {
		t.Fatalf("DecodeBody(%q): %v", encoding, err)
	}
	defer func() {
		_ = decoded.Close()
	}()
	data, err := io.ReadAll(decoded)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestDecodeBodyIdentity(t *testing.T) {
	body := io.NopCloser(bytes.NewReader([]byte(payload)))
	if got := readAll(t, body, ""); got != payload {
		t.Errorf("identity decode = %q", got)
	}
}

func TestDecodeBodyGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(payload))
	_ = zw.Close()

	body := io.NopCloser(&buf)
	if got := readAll(t, body, "gzip"); got != payload {
		t.Errorf("gzip decode = %q", got)
	}
}

func TestDecodeBodyBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, _ = bw.Write([]byte(payload))
	_ = bw.Close()

	body := io.NopCloser(&buf)
	if got := readAll(t, body, "br"); got != payload {
		t.Errorf("brotli decode = %q", got)
	}
}

func TestDecodeBodyUnsupported(t *testing.T) {
	body := io.NopCloser(bytes.NewReader(nil))
	if _, err := DecodeBody(body, "zstd"); err == nil {
		t.Error("unsupported encoding must error")
	}
}
