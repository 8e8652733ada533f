// Package sniff identifies the true media type of a payload from its leading
// bytes, independent of whatever content type the uploader declared.
package sniff

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/podgate/podgate/internal/models"
)

// minSniffLen is the minimum payload length required before any signature is
// trusted. Shorter payloads always detect as nothing.
const minSniffLen = 8

// Basis records how a kind was determined.
type Basis string

const (
	BasisSignature Basis = "signature"
	BasisNone      Basis = "none"
)

// DetectedKind is the resolver's output for one payload.
type DetectedKind struct {
	MimeType string
	Basis    Basis
}

// Detected reports whether a concrete media type was found.
func (d DetectedKind) Detected() bool {
	return d.Basis == BasisSignature && d.MimeType != ""
}

// Kind maps the detected media type onto a classification domain.
func (d DetectedKind) Kind() models.ContentKind {
	switch {
	case strings.HasPrefix(d.MimeType, "image/"):
		return models.KindImage
	case strings.HasPrefix(d.MimeType, "video/"):
		return models.KindVideo
	default:
		return ""
	}
}

// signature is one entry in the ordered detection table. When disambiguate is
// set the prefix only identifies a container; the secondary marker decides the
// concrete type, and an unrecognized marker falls through to later entries.
type signature struct {
	prefix       []byte
	mime         string
	disambiguate func(payload []byte) string
}

// Ordered so specific signatures are tried before generic container prefixes.
var signatures = []signature{
	{prefix: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, mime: "image/png"},
	{prefix: []byte{0xFF, 0xD8, 0xFF}, mime: "image/jpeg"},
	{prefix: []byte("GIF87a"), mime: "image/gif"},
	{prefix: []byte("GIF89a"), mime: "image/gif"},
	{prefix: []byte{0x1A, 0x45, 0xDF, 0xA3}, mime: "video/webm"},
	{prefix: []byte("RIFF"), disambiguate: riffType},
	{prefix: []byte{0x00, 0x00, 0x00}, disambiguate: isoMediaType},
}

// riffType splits the shared RIFF container prefix on the format marker at
// offset 8.
func riffType(payload []byte) string {
	if len(payload) < 12 {
		return ""
	}
	switch string(payload[8:12]) {
	case "WEBP":
		return "image/webp"
	case "AVI ":
		return "video/x-msvideo"
	default:
		return ""
	}
}

// isoMediaType splits the shared all-zero size prefix of ISO base media files
// on the box marker at offset 4.
func isoMediaType(payload []byte) string {
	if len(payload) < 8 {
		return ""
	}
	switch string(payload[4:8]) {
	case "ftyp":
		return "video/mp4"
	case "moov":
		return "video/quicktime"
	default:
		return ""
	}
}

// Detect scans the signature table and returns the detected media type.
// Payloads shorter than the minimum sniff length never match.
func Detect(payload []byte) DetectedKind {
	if len(payload) < minSniffLen {
		return DetectedKind{Basis: BasisNone}
	}

	for _, sig := range signatures {
		if !bytes.HasPrefix(payload, sig.prefix) {
			continue
		}
		mime := sig.mime
		if sig.disambiguate != nil {
			mime = sig.disambiguate(payload)
			if mime == "" {
				continue
			}
		}
		return DetectedKind{MimeType: mime, Basis: BasisSignature}
	}

	return DetectedKind{Basis: BasisNone}
}

// mimeSynonyms canonicalizes declared labels that denote the same format.
var mimeSynonyms = map[string]string{
	"image/jpg": "image/jpeg",
}

func canonicalMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if canonical, ok := mimeSynonyms[mime]; ok {
		return canonical
	}
	return mime
}

// ValidateDeclared compares the detected media type against the declared one.
// It returns a descriptive mismatch reason, or "" when they agree (or nothing
// was detected). The result is a policy signal, not a verdict.
func ValidateDeclared(detected DetectedKind, declared string) string {
	if !detected.Detected() || declared == "" {
		return ""
	}
	if canonicalMime(declared) == canonicalMime(detected.MimeType) {
		return ""
	}
	return fmt.Sprintf("content declared as %s but detected as %s", declared, detected.MimeType)
}

// extensionMimes maps a filename extension to the content types allowed to
// declare it.
var extensionMimes = map[string][]string{
	".jpg":    {"image/jpeg"},
	".jpeg":   {"image/jpeg"},
	".png":    {"image/png"},
	".gif":    {"image/gif"},
	".webp":   {"image/webp"},
	".webm":   {"video/webm"},
	".mp4":    {"video/mp4"},
	".mov":    {"video/quicktime"},
	".avi":    {"video/x-msvideo"},
	".ttl":    {"text/turtle"},
	".nt":     {"application/n-triples"},
	".nq":     {"application/n-quads"},
	".trig":   {"application/trig"},
	".jsonld": {"application/ld+json"},
	".rdf":    {"application/rdf+xml"},
	".html":   {"text/html"},
	".txt":    {"text/plain"},
}

// ValidateExtension checks the declared content type against the resource
// path's filename extension. Unknown or absent extensions are not mismatches.
func ValidateExtension(resourcePath, declared string) string {
	ext := strings.ToLower(path.Ext(resourcePath))
	if ext == "" || declared == "" {
		return ""
	}
	allowed, ok := extensionMimes[ext]
	if !ok {
		return ""
	}
	declaredCanonical := canonicalMime(declared)
	for _, mime := range allowed {
		if declaredCanonical == mime {
			return ""
		}
	}
	return fmt.Sprintf("extension %s does not allow declared content type %s", ext, declared)
}
