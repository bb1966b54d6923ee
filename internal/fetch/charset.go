package fetch

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([a-zA-Z0-9_-]+)`)

// DecodeHTML implements the charset priority chain from spec §4.4 step 5:
// Content-Type charset -> server-apparent (sniffed from bytes) -> meta
// charset in the first 4 KiB -> utf-8 -> cp949 -> euc-kr -> latin-1. The
// first strict decode that fully succeeds wins; if every candidate fails,
// the last resort is utf-8 with the replacement character.
func DecodeHTML(body []byte, resp *http.Response) (text string, encodingName string) {
	candidates := candidateEncodings(body, resp)

	for _, name := range candidates {
		if decoded, ok := tryDecode(body, name); ok {
			return decoded, name
		}
	}

	return strings.ToValidUTF8(string(body), "�"), "utf-8"
}

func candidateEncodings(body []byte, resp *http.Response) []string {
	var out []string
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	if resp != nil {
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			if _, params, err := mime.ParseMediaType(ct); err == nil {
				add(params["charset"])
			}
		}
	}

	if _, sniffedName, ok := charset.DetermineEncoding(body, ""); ok {
		add(sniffedName)
	}

	probe := body
	if len(probe) > 4096 {
		probe = probe[:4096]
	}
	if m := metaCharsetRe.FindSubmatch(probe); m != nil {
		add(string(m[1]))
	}

	add("utf-8")
	add("cp949")
	add("euc-kr")
	add("latin-1")
	return out
}

func tryDecode(body []byte, name string) (string, bool) {
	var enc encoding.Encoding
	switch name {
	case "utf-8", "utf8":
		if !bytes.ContainsRune(body, '�') && isValidUTF8Strict(body) {
			return string(body), true
		}
		return "", false
	case "latin-1", "latin1", "iso-8859-1":
		enc = encoding.Nop // byte-for-byte, latin-1 maps 1:1 onto unicode code points 0-255
		decoded := make([]rune, len(body))
		for i, b := range body {
			decoded[i] = rune(b)
		}
		return string(decoded), true
	default:
		e, err := htmlindex.Get(name)
		if err != nil {
			return "", false
		}
		enc = e
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func isValidUTF8Strict(b []byte) bool {
	r := bytes.NewReader(b)
	buf := make([]byte, 0, len(b))
	tmp := make([]byte, 4096)
	for {
		n, err := r.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return false
		}
	}
	return strings.ToValidUTF8(string(buf), "") == string(buf)
}
