// Package metadata resolves the off-chain description of a market.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

const noMetadata = "No metadata"

// Document is the off-chain part of a market.
type Document struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// Sentinel is the document of a market whose metadata is absent or unreadable.
func Sentinel() Document {
	return Document{
		Title:       noMetadata,
		Description: noMetadata,
		Categories:  []string{noMetadata},
	}
}

// IsSentinel reports whether d is the no-metadata document.
func (d Document) IsSentinel() bool {
	return d.Title == noMetadata && d.Description == noMetadata &&
		len(d.Categories) == 1 && d.Categories[0] == noMetadata
}

// Encoding names how a document was stored.
type Encoding string

const (
	EncodingJSON   Encoding = "json"
	EncodingLegacy Encoding = "legacy"
)

const (
	legacyTitleMarker = "title:"
	legacyInfoMarker  = "::info:"
)

// legacyCategories are implied by the legacy text format, which predates categories.
var legacyCategories = []string{"Invalid", "Yes", "No"}

var errNotJSON = errors.New("not a JSON document")

// Parse decodes raw as a JSON document and falls back to the legacy
// "title:<T>::info:<D>" text form. Any input that is valid JSON is taken as the
// JSON encoding; everything else is read as legacy text, which never fails.
func Parse(raw []byte) (Document, Encoding) {
	if doc, err := parseJSON(raw); err == nil {
		return doc, EncodingJSON
	}
	return parseLegacy(string(raw)), EncodingLegacy
}

// parseJSON takes the three known fields as they are. Missing ones stay empty,
// unknown ones are ignored and values of the wrong type are kept as their JSON text.
// A valid JSON value that is not an object yields an empty document.
func parseJSON(raw []byte) (Document, error) {
	if !json.Valid(raw) {
		return Document{}, errNotJSON
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, nil
	}

	doc := Document{
		Title:       jsonText(fields["title"]),
		Description: jsonText(fields["description"]),
	}
	var items []json.RawMessage
	if err := json.Unmarshal(fields["categories"], &items); err == nil && items != nil {
		doc.Categories = make([]string, len(items))
		for i, item := range items {
			doc.Categories[i] = jsonText(item)
		}
	}
	return doc, nil
}

// jsonText renders a JSON string as its value and any other non-null value as its JSON text.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if t := bytes.TrimSpace(raw); !bytes.Equal(t, []byte("null")) {
		return string(t)
	}
	return ""
}

// parseLegacy slices the title from a fixed offset of len("title:") up to the
// info marker, whether or not the text actually starts with "title:". Without a
// marker the description is everything past the offset and the title drops the
// last byte, as the historic reader did.
func parseLegacy(s string) Document {
	offset := len(legacyTitleMarker)
	descStart, titleEnd := 0, 0
	if info := strings.Index(s, legacyInfoMarker); info >= 0 {
		descStart = info + len(legacyInfoMarker)
		titleEnd = info
	} else {
		descStart = min(offset, len(s))
		titleEnd = len(s) - 1
	}

	var title string
	if titleEnd > offset {
		title = s[offset:titleEnd]
	}
	return Document{
		Title:       title,
		Description: s[descStart:],
		Categories:  append([]string(nil), legacyCategories...),
	}
}

// Marshal encodes d in the JSON form new markets are published with.
func (d Document) Marshal() ([]byte, error) {
	if d.Categories == nil {
		d.Categories = []string{}
	}
	return json.Marshal(d)
}
