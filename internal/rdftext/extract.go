// Package rdftext flattens linked-data documents into the human-authored text
// they carry, so free text inside RDF payloads can be classified the same way
// a plain-text upload would be.
package rdftext

import (
	"encoding/json"
	"encoding/xml"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Serialization identifies a supported document format. Values follow the
// content types pods accept for RDF resources.
type Serialization string

const (
	Turtle        Serialization = "text/turtle"
	NTriples      Serialization = "application/n-triples"
	NQuads        Serialization = "application/n-quads"
	TriG          Serialization = "application/trig"
	JSONLD        Serialization = "application/ld+json"
	RDFXML        Serialization = "application/rdf+xml"
	SPARQLUpdate  Serialization = "application/sparql-update"
	SPARQLResults Serialization = "application/sparql-results+json"
	HTML          Serialization = "text/html"
	PlainText     Serialization = "text/plain"
)

// FromContentType maps a declared content type onto a serialization, or ""
// when the format carries no extractable text.
func FromContentType(contentType string) Serialization {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	switch Serialization(mime) {
	case Turtle, NTriples, NQuads, TriG, JSONLD, RDFXML, SPARQLUpdate, SPARQLResults, HTML, PlainText:
		return Serialization(mime)
	default:
		return ""
	}
}

// Extract returns the moderatable text of the document in document order,
// without deduplication. Unsupported serializations yield "", meaning there
// is nothing to moderate.
func Extract(document string, serialization Serialization) string {
	switch serialization {
	case Turtle, NTriples, NQuads, TriG:
		return strings.Join(quotedLiterals(document, false), " ")
	case SPARQLUpdate:
		return strings.Join(quotedLiterals(document, true), " ")
	case JSONLD:
		return extractJSONLD(document)
	case RDFXML:
		return extractRDFXML(document)
	case SPARQLResults:
		return extractSPARQLResults(document)
	case HTML:
		return extractHTML(document)
	case PlainText:
		return document
	default:
		return ""
	}
}

// quotedLiterals scans for double- and single-quoted string literals,
// unescaping the common escapes. With comments enabled, text after an
// unquoted # is collected too (SPARQL comment syntax).
func quotedLiterals(document string, comments bool) []string {
	var fragments []string
	var current strings.Builder
	var quote byte
	inQuote := false
	escaped := false

	for i := 0; i < len(document); i++ {
		c := document[i]

		if inQuote {
			if escaped {
				switch c {
				case 'n':
					current.WriteByte('\n')
				case 'r':
					current.WriteByte('\r')
				case 't':
					current.WriteByte('\t')
				case '"', '\'', '\\':
					current.WriteByte(c)
				default:
					current.WriteByte('\\')
					current.WriteByte(c)
				}
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case quote:
				if current.Len() > 0 {
					fragments = append(fragments, current.String())
				}
				current.Reset()
				inQuote = false
			default:
				current.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
			inQuote = true
		case '#':
			if comments {
				end := strings.IndexByte(document[i:], '\n')
				if end < 0 {
					end = len(document) - i
				}
				comment := strings.TrimSpace(document[i+1 : i+end])
				if comment != "" {
					fragments = append(fragments, comment)
				}
				i += end
			}
		}
	}

	return fragments
}

// looksLikeURI reports whether a string is an absolute URI, which linked-data
// documents use as identifiers rather than human text.
func looksLikeURI(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func extractJSONLD(document string) string {
	var root interface{}
	if err := json.Unmarshal([]byte(document), &root); err != nil {
		return ""
	}
	var fragments []string
	collectJSONStrings(root, &fragments)
	return strings.Join(fragments, " ")
}

// collectJSONStrings walks the decoded document and gathers string leaves,
// skipping identifier values (absolute URIs).
func collectJSONStrings(node interface{}, fragments *[]string) {
	switch v := node.(type) {
	case string:
		if v != "" && !looksLikeURI(v) {
			*fragments = append(*fragments, v)
		}
	case []interface{}:
		for _, item := range v {
			collectJSONStrings(item, fragments)
		}
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			collectJSONStrings(v[key], fragments)
		}
	}
}

// sortedKeys keeps object traversal deterministic; encoding/json map order is
// otherwise random.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func extractRDFXML(document string) string {
	decoder := xml.NewDecoder(strings.NewReader(document))
	var fragments []string
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		chars, ok := token.(xml.CharData)
		if !ok {
			continue
		}
		text := strings.TrimSpace(string(chars))
		if text != "" && !looksLikeURI(text) {
			fragments = append(fragments, text)
		}
	}
	return strings.Join(fragments, " ")
}

// sparqlResults is the subset of the SPARQL JSON results format the extractor
// reads: literal-typed bindings only.
type sparqlResults struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
}

func extractSPARQLResults(document string) string {
	var parsed sparqlResults
	if err := json.Unmarshal([]byte(document), &parsed); err != nil {
		return ""
	}

	order := parsed.Head.Vars
	var fragments []string
	for _, binding := range parsed.Results.Bindings {
		vars := order
		if len(vars) == 0 {
			vars = make([]string, 0, len(binding))
			for name := range binding {
				vars = append(vars, name)
			}
			sort.Strings(vars)
		}
		for _, name := range vars {
			value, ok := binding[name]
			if ok && value.Type == "literal" && value.Value != "" {
				fragments = append(fragments, value.Value)
			}
		}
	}
	return strings.Join(fragments, " ")
}

func extractHTML(document string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
