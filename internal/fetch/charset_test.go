package fetch

import (
	"net/http"
	"testing"
)

func TestDecodeHTMLUsesContentTypeCharset(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Content-Type": []string{"text/html; charset=utf-8"}}}
	body := []byte("<html><body>hello</body></html>")
	text, enc := DecodeHTML(body, resp)
	if enc != "utf-8" {
		t.Fatalf("expected utf-8, got %q", enc)
	}
	if text != string(body) {
		t.Fatalf("expected body to round-trip, got %q", text)
	}
}

func TestDecodeHTMLReturnsTextForGarbage(t *testing.T) {
	body := []byte{0xff, 0xfe, 0xfd}
	text, enc := DecodeHTML(body, nil)
	if text == "" {
		t.Fatal("expected non-empty fallback decode")
	}
	if enc == "" {
		t.Fatal("expected a non-empty encoding label")
	}
}

func TestDecodeHTMLFindsMetaCharset(t *testing.T) {
	body := []byte(`<html><head><meta charset="utf-8"></head><body>hi</body></html>`)
	_, enc := DecodeHTML(body, nil)
	if enc == "" {
		t.Fatal("expected a detected encoding")
	}
}
