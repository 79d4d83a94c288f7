package sarif

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"
)

// Members holds JSON object members verbatim. It backs property bags and
// the unrecognised members of every modelled object.
type Members map[string]json.RawMessage

// Clone returns an independent copy.
func (m Members) Clone() Members {
	if m == nil {
		return nil
	}
	out := make(Members, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Has reports whether key is present.
func (m Members) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Decode unmarshals the member stored under key into v.
func (m Members) Decode(key string, v interface{}) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("member %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key, allocating the map when needed.
func (m *Members) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("member %q: %w", key, err)
	}
	if *m == nil {
		*m = Members{}
	}
	(*m)[key] = raw
	return nil
}

// Delete removes key and returns nil when the map becomes empty.
func (m Members) Delete(key string) Members {
	delete(m, key)
	if len(m) == 0 {
		return nil
	}
	return m
}

// Document is a version-agnostic analysis log.
type Document struct {
	Version Version
	Schema  string
	Runs    []*Run
	Extra   Members
}

// Clone deep copies the document.
func (d *Document) Clone() *Document {
	out := &Document{Version: d.Version, Schema: d.Schema, Extra: d.Extra.Clone()}
	out.Runs = make([]*Run, len(d.Runs))
	for i, r := range d.Runs {
		out.Runs[i] = r.Clone()
	}
	return out
}

// FindingCount totals the findings of every run.
func (d *Document) FindingCount() int {
	n := 0
	for _, r := range d.Runs {
		n += len(r.Findings)
	}
	return n
}

// Tool identifies the analysis tool that produced a run.
type Tool struct {
	Name            string
	FullName        string
	Version         string
	SemanticVersion string
	Properties      Members
	// Extra keeps unrecognised members of the tool (1.0.0) or driver (2.x) object.
	Extra Members
	// Outer keeps members of the 2.x tool object other than the driver.
	Outer Members
}

// Run is one execution of a tool.
type Run struct {
	Tool        Tool
	Rules       []*RuleDescriptor
	Findings    []*Finding
	Invocations []json.RawMessage
	Properties  Members
	Extra       Members
}

// Clone deep copies the run.
func (r *Run) Clone() *Run {
	out := r.CloneEmpty()
	if r.Findings == nil {
		out.Findings = nil
		return out
	}
	out.Findings = make([]*Finding, len(r.Findings))
	for i, f := range r.Findings {
		out.Findings[i] = f.Clone()
	}
	return out
}

// CloneEmpty copies everything but the findings.
func (r *Run) CloneEmpty() *Run {
	out := &Run{
		Tool:       r.Tool,
		Properties: r.Properties.Clone(),
		Extra:      r.Extra.Clone(),
		Findings:   []*Finding{},
	}
	out.Tool.Properties = r.Tool.Properties.Clone()
	out.Tool.Extra = r.Tool.Extra.Clone()
	out.Tool.Outer = r.Tool.Outer.Clone()
	if r.Rules != nil {
		out.Rules = make([]*RuleDescriptor, len(r.Rules))
		for i, rd := range r.Rules {
			out.Rules[i] = rd.Clone()
		}
	}
	if r.Invocations != nil {
		out.Invocations = make([]json.RawMessage, len(r.Invocations))
		for i, inv := range r.Invocations {
			out.Invocations[i] = append(json.RawMessage(nil), inv...)
		}
	}
	return out
}

// Rule returns the descriptor for id, or nil.
func (r *Run) Rule(id string) *RuleDescriptor {
	for _, rd := range r.Rules {
		if rd.ID == id {
			return rd
		}
	}
	return nil
}

// RuleIndex maps rule identifiers to descriptors.
func (r *Run) RuleIndex() map[string]*RuleDescriptor {
	index := make(map[string]*RuleDescriptor, len(r.Rules))
	for _, rd := range r.Rules {
		if _, ok := index[rd.ID]; !ok {
			index[rd.ID] = rd
		}
	}
	return index
}

// AddRule appends rd unless a descriptor with the same id exists.
func (r *Run) AddRule(rd *RuleDescriptor) {
	if r.Rule(rd.ID) == nil {
		r.Rules = append(r.Rules, rd)
	}
}

// RuleDescriptor carries a rule's metadata.
type RuleDescriptor struct {
	ID               string
	Name             string
	ShortDescription *gosarif.MultiformatMessageString
	FullDescription  *gosarif.MultiformatMessageString
	HelpURI          string
	// DefaultLevel is meaningful only when HasDefaultLevel is set.
	DefaultLevel    Level
	HasDefaultLevel bool
	Enabled         *bool
	Properties      Members
	// ConfigExtra keeps unrecognised members of the default configuration.
	ConfigExtra Members
	Extra       Members
}

// Clone copies the descriptor.
func (rd *RuleDescriptor) Clone() *RuleDescriptor {
	out := *rd
	out.Properties = rd.Properties.Clone()
	out.ConfigExtra = rd.ConfigExtra.Clone()
	out.Extra = rd.Extra.Clone()
	if rd.Enabled != nil {
		enabled := *rd.Enabled
		out.Enabled = &enabled
	}
	return &out
}

// Finding is one reported condition.
type Finding struct {
	RuleID    string
	Level     Level
	Kind      Kind
	Message   gosarif.Message
	// MessageExtra keeps the message members Message does not model, its
	// property bag included, as read.
	MessageExtra Members
	Locations    []*Location
	// Fingerprints and PartialFingerprints are consumed only by baseline matching.
	Fingerprints        map[string]string
	PartialFingerprints map[string]string
	BaselineState       BaselineState
	GUID                string
	CorrelationGUID     string
	// LevelImplicit and KindImplicit mark values defaulted on read, so they are not written back.
	LevelImplicit bool
	KindImplicit  bool
	// LegacyLevel keeps a 1.0.0 level term that Kind and Level alone cannot reproduce.
	LegacyLevel string
	Properties  Members
	Extra       Members
}

// Clone deep copies the finding.
func (f *Finding) Clone() *Finding {
	out := *f
	if f.Message.Arguments != nil {
		out.Message.Arguments = make([]string, len(f.Message.Arguments))
		copy(out.Message.Arguments, f.Message.Arguments)
	}
	out.MessageExtra = f.MessageExtra.Clone()
	out.Locations = make([]*Location, len(f.Locations))
	for i, l := range f.Locations {
		out.Locations[i] = l.Clone()
	}
	if f.Locations == nil {
		out.Locations = nil
	}
	out.Fingerprints = cloneStrings(f.Fingerprints)
	out.PartialFingerprints = cloneStrings(f.PartialFingerprints)
	out.Properties = f.Properties.Clone()
	out.Extra = f.Extra.Clone()
	return &out
}

// SetLevel overrides the level and marks it explicit.
func (f *Finding) SetLevel(l Level) {
	f.Level = l
	f.LevelImplicit = false
	f.LegacyLevel = ""
}

// MessageText returns the plain text message, or "".
func (f *Finding) MessageText() string {
	if f.Message.Text == nil {
		return ""
	}
	return *f.Message.Text
}

// PrimaryLocation returns the first location, or nil.
func (f *Finding) PrimaryLocation() *Location {
	if len(f.Locations) == 0 {
		return nil
	}
	return f.Locations[0]
}

// Location is a file URI plus an optional region.
type Location struct {
	URI       string
	URIBaseID string
	Region    *gosarif.Region
	// RegionExtra keeps the region members Region does not model, as read.
	RegionExtra Members
	// ArtifactExtra and PhysicalExtra keep unrecognised members of the
	// artifact location and physical location (2.x) or result file (1.0.0).
	ArtifactExtra Members
	PhysicalExtra Members
	Extra         Members
}

// Clone copies the location.
func (l *Location) Clone() *Location {
	out := *l
	if l.Region != nil {
		region := *l.Region
		out.Region = &region
	}
	out.RegionExtra = l.RegionExtra.Clone()
	out.ArtifactExtra = l.ArtifactExtra.Clone()
	out.PhysicalExtra = l.PhysicalExtra.Clone()
	out.Extra = l.Extra.Clone()
	return &out
}

// NormalizedURI folds separators and redundant segments so equivalent spellings compare equal.
func (l *Location) NormalizedURI() string {
	uri := strings.ReplaceAll(strings.TrimSpace(l.URI), "\\", "/")
	if uri == "" {
		return ""
	}
	scheme := ""
	if i := strings.Index(uri, "://"); i > 0 {
		scheme, uri = strings.ToLower(uri[:i+3]), uri[i+3:]
	}
	cleaned := path.Clean(uri)
	if strings.HasSuffix(uri, "/") && cleaned != "/" {
		cleaned += "/"
	}
	if l.URIBaseID != "" {
		return "%" + l.URIBaseID + "%/" + strings.TrimPrefix(scheme+cleaned, "/")
	}
	return scheme + cleaned
}

// Key is the normalized location: URI plus region bounds.
func (l *Location) Key() string {
	if l == nil {
		return ""
	}
	var startLine, startCol, endLine, endCol int
	if r := l.Region; r != nil {
		startLine, startCol = intValue(r.StartLine), intValue(r.StartColumn)
		endLine, endCol = intValue(r.EndLine), intValue(r.EndColumn)
		if endLine == 0 {
			endLine = startLine
		}
	}
	return fmt.Sprintf("%s|%d:%d-%d:%d", l.NormalizedURI(), startLine, startCol, endLine, endCol)
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
