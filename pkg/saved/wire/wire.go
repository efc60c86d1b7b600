// Package wire converts saved-item records between their canonical JSON
// shape and the compact short-key shape used to shrink the persisted blob.
//
// Both shapes carry exactly the same five fields:
//
//	canonical  compact
//	url        u
//	title      t
//	notes      n
//	tags       g
//	savedAt    s
//
// Decoders accept either shape per record, so a blob written by the compact
// codec can always be read back by a canonical reader and the other way round.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingURL is returned when a decoded record has no url.
var ErrMissingURL = errors.New("wire: record has no url")

// Record is the canonical on-wire shape of one saved item.
type Record struct {
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Notes   string   `json:"notes"`
	Tags    []string `json:"tags"`
	SavedAt string   `json:"savedAt"`
}

// CompactRecord is the short-key shape of Record.
type CompactRecord struct {
	U string   `json:"u"`
	T string   `json:"t"`
	N string   `json:"n"`
	G []string `json:"g"`
	S string   `json:"s"`
}

// Compress maps canonical records to the compact shape.
func Compress(records []Record) []CompactRecord {
	out := make([]CompactRecord, len(records))
	for i, r := range records {
		out[i] = CompactRecord{U: r.URL, T: r.Title, N: r.Notes, G: nonNilTags(r.Tags), S: r.SavedAt}
	}
	return out
}

// Decompress maps compact records back to the canonical shape.
func Decompress(records []CompactRecord) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{URL: r.U, Title: r.T, Notes: r.N, Tags: nonNilTags(r.G), SavedAt: r.S}
	}
	return out
}

// Codec encodes and decodes a whole collection blob.
type Codec interface {
	Name() string
	Encode(records []Record) ([]byte, error)
	Decode(data []byte) ([]Record, error)
}

var (
	// Canonical writes records with their full field names.
	Canonical Codec = canonicalCodec{}

	// Compact writes records with the u,t,n,g,s aliases.
	Compact Codec = compactCodec{}
)

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", Canonical.Name():
		return Canonical, nil
	case Compact.Name():
		return Compact, nil
	default:
		return nil, fmt.Errorf("wire: unknown codec %q", name)
	}
}

type canonicalCodec struct{}

func (canonicalCodec) Name() string { return "canonical" }

func (canonicalCodec) Encode(records []Record) ([]byte, error) {
	normalized := make([]Record, len(records))
	for i, r := range records {
		r.Tags = nonNilTags(r.Tags)
		normalized[i] = r
	}
	return marshal(normalized, "")
}

func (canonicalCodec) Decode(data []byte) ([]Record, error) { return Decode(data) }

type compactCodec struct{}

func (compactCodec) Name() string { return "compact" }

func (compactCodec) Encode(records []Record) ([]byte, error) {
	return marshal(Compress(records), "")
}

func (compactCodec) Decode(data []byte) ([]Record, error) { return Decode(data) }

// Pretty renders records in canonical shape with two-space indentation.
func Pretty(records []Record) ([]byte, error) {
	normalized := make([]Record, len(records))
	for i, r := range records {
		r.Tags = nonNilTags(r.Tags)
		normalized[i] = r
	}
	return marshal(normalized, "  ")
}

// ErrNullPayload is returned when the payload is a JSON null instead of an
// array.
var ErrNullPayload = errors.New("wire: payload is null")

// Decode parses a JSON array whose elements may be canonical or compact
// records. Field names are matched exactly; keys that differ only in case
// are ignored like any other unknown key.
func Decode(data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("wire: payload is not a record array: %w", err)
	}
	if raw == nil {
		return nil, ErrNullPayload
	}

	records := make([]Record, 0, len(raw))
	for i, msg := range raw {
		r, err := decodeRecord(msg)
		if err != nil {
			return nil, fmt.Errorf("wire: record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// recordFields maps the canonical and compact key of each field to its
// destination in r.
func recordFields(r *Record, compact bool) map[string]any {
	if compact {
		return map[string]any{"u": &r.URL, "t": &r.Title, "n": &r.Notes, "g": &r.Tags, "s": &r.SavedAt}
	}
	return map[string]any{"url": &r.URL, "title": &r.Title, "notes": &r.Notes, "tags": &r.Tags, "savedAt": &r.SavedAt}
}

func decodeRecord(msg json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil || fields == nil {
		return Record{}, fmt.Errorf("not an object")
	}

	var r Record
	_, canonical := fields["url"]
	_, compact := fields["u"]
	if canonical || compact {
		for key, dst := range recordFields(&r, !canonical) {
			value, ok := fields[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(value, dst); err != nil {
				return Record{}, fmt.Errorf("field %q: %w", key, err)
			}
		}
	}

	if r.URL == "" {
		return Record{}, ErrMissingURL
	}
	r.Tags = nonNilTags(r.Tags)
	return r, nil
}

func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
