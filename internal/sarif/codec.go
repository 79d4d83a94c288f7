package sarif

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"
)

// Parse reads a log in either supported wire format.
func Parse(data []byte) (*Document, error) {
	var top object
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, malformed("", err)
	}
	if top == nil {
		return nil, &MalformedDocumentError{Err: errors.New("document is null")}
	}

	var literal string
	if ok, err := top.take("version", &literal, ""); err != nil {
		return nil, err
	} else if !ok {
		return nil, &MalformedDocumentError{Path: "/version", Err: errors.New("version is required")}
	}
	version, err := ParseVersion(literal)
	if err != nil {
		return nil, err
	}

	doc := &Document{Version: version}
	if _, err := top.take("$schema", &doc.Schema, ""); err != nil {
		return nil, err
	}

	var runs []json.RawMessage
	if _, err := top.take("runs", &runs, ""); err != nil {
		return nil, err
	}
	doc.Runs = make([]*Run, 0, len(runs))
	for i, raw := range runs {
		p := pointer("/runs", i)
		var run *Run
		if version.Generation() == 1 {
			run, err = decodeRunV1(raw, p)
		} else {
			run, err = decodeRunV2(raw, p)
		}
		if err != nil {
			return nil, err
		}
		doc.Runs = append(doc.Runs, run)
	}
	doc.Extra = top.rest()
	return doc, nil
}

// Serialize writes doc in the wire format of v. The document must already be
// at the generation of v; use the transcode package to convert it first.
func Serialize(doc *Document, v Version) ([]byte, error) {
	if v.Generation() == 0 {
		return nil, &UnsupportedVersionError{Version: string(v)}
	}
	if !doc.Version.SameGeneration(v) {
		return nil, &VersionMismatchError{Want: v, Got: doc.Version}
	}

	out := newObject(doc.Extra)
	out["version"] = v
	if doc.Schema != "" {
		out["$schema"] = doc.Schema
	}
	runs := make([]interface{}, 0, len(doc.Runs))
	for i, run := range doc.Runs {
		var (
			encoded interface{}
			err     error
		)
		if v.Generation() == 1 {
			encoded, err = encodeRunV1(run)
		} else {
			encoded, err = encodeRunV2(run)
		}
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		runs = append(runs, encoded)
	}
	out["runs"] = runs

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// object is a decoded JSON object whose members are consumed while decoding;
// what remains afterwards is kept as unrecognised members.
type object map[string]json.RawMessage

func decodeObject(raw json.RawMessage, path string) (object, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, malformed(path, err)
	}
	if o == nil {
		return nil, malformed(path, errors.New("expected an object, got null"))
	}
	return o, nil
}

func (o object) take(key string, v interface{}, path string) (bool, error) {
	raw, ok := o[key]
	if !ok {
		return false, nil
	}
	delete(o, key)
	if err := json.Unmarshal(raw, v); err != nil {
		return true, malformed(pointer(path, key), err)
	}
	return true, nil
}

func (o object) takeObject(key string, path string) (object, error) {
	raw, ok := o[key]
	if !ok {
		return nil, nil
	}
	delete(o, key)
	return decodeObject(raw, pointer(path, key))
}

func (o object) takeMembers(key string, path string) (Members, error) {
	sub, err := o.takeObject(key, path)
	if err != nil || sub == nil {
		return nil, err
	}
	return Members(sub), nil
}

func (o object) rest() Members {
	if len(o) == 0 {
		return nil
	}
	return Members(o)
}

// decodeMessage reads the message object under key. Members other than the
// plain strings and arguments stay raw in the returned extra, property bag included.
func decodeMessage(o object, key, path string) (gosarif.Message, Members, error) {
	var m gosarif.Message
	mo, err := o.takeObject(key, path)
	if err != nil || mo == nil {
		return m, nil, err
	}
	messagePath := pointer(path, key)
	fields := []struct {
		key string
		dst interface{}
	}{
		{"text", &m.Text},
		{"markdown", &m.Markdown},
		{"id", &m.ID},
		{"arguments", &m.Arguments},
	}
	for _, field := range fields {
		if _, err := mo.take(field.key, field.dst, messagePath); err != nil {
			return m, nil, err
		}
	}
	return m, mo.rest(), nil
}

func encodeMessage(m gosarif.Message, extra Members) map[string]interface{} {
	out := newObject(extra)
	if m.Text != nil {
		out["text"] = *m.Text
	}
	if m.Markdown != nil {
		out["markdown"] = *m.Markdown
	}
	if m.ID != nil {
		out["id"] = *m.ID
	}
	if m.Arguments != nil {
		out["arguments"] = m.Arguments
	}
	if m.Properties != nil && !extra.Has("properties") {
		out["properties"] = m.Properties
	}
	return out
}

type regionField struct {
	key string
	dst **int
}

// regionFields lists the integer members of a region for a wire generation.
func regionFields(r *gosarif.Region, generation int) []regionField {
	fields := []regionField{
		{"startLine", &r.StartLine},
		{"startColumn", &r.StartColumn},
		{"endLine", &r.EndLine},
		{"endColumn", &r.EndColumn},
	}
	if generation == 1 {
		return append(fields, regionField{"offset", &r.CharOffset}, regionField{"length", &r.CharLength})
	}
	return append(fields,
		regionField{"charOffset", &r.CharOffset},
		regionField{"charLength", &r.CharLength},
		regionField{"byteOffset", &r.ByteOffset},
		regionField{"byteLength", &r.ByteLength},
	)
}

// decodeRegion reads the region object under key. Snippet, message, property
// bag and unknown members stay raw in the returned extra.
func decodeRegion(o object, key, path string, generation int) (*gosarif.Region, Members, error) {
	ro, err := o.takeObject(key, path)
	if err != nil || ro == nil {
		return nil, nil, err
	}
	regionPath := pointer(path, key)
	r := &gosarif.Region{}
	for _, field := range regionFields(r, generation) {
		if _, err := ro.take(field.key, field.dst, regionPath); err != nil {
			return nil, nil, err
		}
	}
	if generation == 2 {
		if _, err := ro.take("sourceLanguage", &r.SourceLanguage, regionPath); err != nil {
			return nil, nil, err
		}
	}
	return r, ro.rest(), nil
}

func encodeRegion(r *gosarif.Region, extra Members, generation int) map[string]interface{} {
	out := newObject(extra)
	if r == nil {
		return out
	}
	for _, field := range regionFields(r, generation) {
		if *field.dst != nil {
			out[field.key] = **field.dst
		}
	}
	if generation == 1 {
		return out
	}
	if r.SourceLanguage != nil {
		out["sourceLanguage"] = *r.SourceLanguage
	}
	if r.Snippet != nil && !extra.Has("snippet") {
		out["snippet"] = r.Snippet
	}
	if r.Message != nil && !extra.Has("message") {
		out["message"] = r.Message
	}
	if r.Properties != nil && !extra.Has("properties") {
		out["properties"] = r.Properties
	}
	return out
}

// newObject starts an output object from unrecognised members; known members
// are assigned afterwards and win on conflict.
func newObject(extra Members) map[string]interface{} {
	out := make(map[string]interface{}, len(extra)+8)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func putMembers(out map[string]interface{}, key string, m Members) {
	if len(m) > 0 {
		out[key] = m
	}
}

func putString(out map[string]interface{}, key, value string) {
	if value != "" {
		out[key] = value
	}
}

func putStrings(out map[string]interface{}, key string, m map[string]string) {
	if len(m) > 0 {
		out[key] = m
	}
}

// pointer appends reference tokens to a JSON pointer, escaping per RFC 6901.
func pointer(base string, tokens ...interface{}) string {
	var b strings.Builder
	b.WriteString(base)
	for _, t := range tokens {
		b.WriteByte('/')
		switch v := t.(type) {
		case int:
			b.WriteString(strconv.Itoa(v))
		case string:
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(v, "~", "~0"), "/", "~1"))
		default:
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}

// Pointer builds a JSON pointer below base from reference tokens.
func Pointer(base string, tokens ...interface{}) string {
	return pointer(base, tokens...)
}

// ResultPointer addresses a finding inside a log.
func ResultPointer(run, result int) string {
	return pointer("", "runs", run, "results", result)
}

// RegionPointer addresses the region of a finding location for the wire
// generation of v.
func RegionPointer(v Version, run, result, loc int) string {
	base := pointer(ResultPointer(run, result), "locations", loc)
	if v.Generation() == 1 {
		return pointer(base, "resultFile", "region")
	}
	return pointer(base, "physicalLocation", "region")
}

// URIPointer addresses the URI of a finding location for the wire generation of v.
func URIPointer(v Version, run, result, loc int) string {
	base := pointer(ResultPointer(run, result), "locations", loc)
	if v.Generation() == 1 {
		return pointer(base, "resultFile", "uri")
	}
	return pointer(base, "physicalLocation", "artifactLocation", "uri")
}
