package imageproxy

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// DefaultContentType is served when neither upstream nor the file extension
// tells us the image type.
const DefaultContentType = "image/jpeg"

var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jfif": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"avif": "image/avif",
	"heic": "image/heic",
}

// TypeFromExtension returns the image type implied by the extension of the
// URL path, or "" if unknown.
func TypeFromExtension(u *url.URL) string {
	if u == nil {
		return ""
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	return extensionTypes[ext]
}

// ResolveContentType picks the content type to serve. The upstream type wins
// unless it is missing, malformed or an octet-stream type of any kind
// (application/octet-stream, binary/octet-stream).
func ResolveContentType(upstream string, original *url.URL) string {
	if upstream != "" {
		mediaType, _, err := mime.ParseMediaType(upstream)
		if err == nil && !isOctetStream(mediaType) {
			return upstream
		}
	}
	if t := TypeFromExtension(original); t != "" {
		return t
	}
	return DefaultContentType
}

func isOctetStream(mediaType string) bool {
	_, subtype, _ := strings.Cut(mediaType, "/")
	return subtype == "octet-stream"
}

// Filename returns the last path segment of u, or "image" when there is none.
func Filename(u *url.URL) string {
	if u == nil {
		return "image"
	}
	segment := u.Path
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	if segment == "" {
		return "image"
	}
	return segment
}

// ContentDisposition builds an inline disposition carrying filename as a
// UTF-8 extended parameter.
func ContentDisposition(filename string) string {
	return "inline; filename*=UTF-8''" + encodeRFC5987(filename)
}

// encodeRFC5987 percent-encodes every byte outside the attr-char set.
func encodeRFC5987(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
