package sarif

import (
	"encoding/json"
	"fmt"
	"sort"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"
)

// ToolFingerprintKey is the partial fingerprint that carries the 1.0.0
// toolFingerprintContribution value.
const ToolFingerprintKey = "toolFingerprintContribution"

// NotRepresentableError reports a modelled value that a 1.0.0 log cannot hold.
type NotRepresentableError struct {
	Field string
	Value string
}

func (e *NotRepresentableError) Error() string {
	return fmt.Sprintf("%s %q has no 1.0.0 form; transcode the document first", e.Field, e.Value)
}

func decodeRunV1(raw json.RawMessage, path string) (*Run, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	run := &Run{}

	toolObj, err := o.takeObject("tool", path)
	if err != nil {
		return nil, err
	}
	if toolObj != nil {
		if err := decodeToolFields(toolObj, &run.Tool, pointer(path, "tool")); err != nil {
			return nil, err
		}
		run.Tool.Extra = toolObj.rest()
	}

	var invocation json.RawMessage
	ok, err := o.take("invocation", &invocation, path)
	if err != nil {
		return nil, err
	}
	if ok {
		run.Invocations = []json.RawMessage{invocation}
	}

	rulesObj, err := o.takeObject("rules", path)
	if err != nil {
		return nil, err
	}
	if rulesObj != nil {
		keys := make([]string, 0, len(rulesObj))
		for k := range rulesObj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		run.Rules = make([]*RuleDescriptor, 0, len(keys))
		for _, k := range keys {
			rd, err := decodeRuleV1(rulesObj[k], pointer(path, "rules", k), k)
			if err != nil {
				return nil, err
			}
			run.Rules = append(run.Rules, rd)
		}
	}

	var results []json.RawMessage
	ok, err = o.take("results", &results, path)
	if err != nil {
		return nil, err
	}
	if ok {
		run.Findings = make([]*Finding, 0, len(results))
	}
	for i, r := range results {
		f, err := decodeResultV1(r, pointer(path, "results", i))
		if err != nil {
			return nil, err
		}
		run.Findings = append(run.Findings, f)
	}

	if run.Properties, err = o.takeMembers("properties", path); err != nil {
		return nil, err
	}
	run.Extra = o.rest()
	return run, nil
}

func encodeRunV1(run *Run) (interface{}, error) {
	if len(run.Tool.Outer) > 0 {
		return nil, &NotRepresentableError{Field: "tool", Value: "extensions"}
	}
	if len(run.Invocations) > 1 {
		return nil, &NotRepresentableError{Field: "invocations", Value: fmt.Sprint(len(run.Invocations))}
	}

	out := newObject(run.Extra)
	tool := newObject(run.Tool.Extra)
	encodeToolFields(tool, run.Tool)
	out["tool"] = tool
	if len(run.Invocations) == 1 {
		out["invocation"] = run.Invocations[0]
	}
	if run.Rules != nil {
		rules := make(map[string]interface{}, len(run.Rules))
		for _, rd := range run.Rules {
			encoded, err := encodeRuleV1(rd)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", rd.ID, err)
			}
			rules[rd.ID] = encoded
		}
		out["rules"] = rules
	}
	if run.Findings != nil {
		results := make([]interface{}, 0, len(run.Findings))
		for i, f := range run.Findings {
			encoded, err := encodeResultV1(f)
			if err != nil {
				return nil, fmt.Errorf("result %d: %w", i, err)
			}
			results = append(results, encoded)
		}
		out["results"] = results
	}
	putMembers(out, "properties", run.Properties)
	return out, nil
}

func decodeRuleV1(raw json.RawMessage, path, key string) (*RuleDescriptor, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	rd := &RuleDescriptor{ID: key}
	var short, full string
	fields := []struct {
		key string
		dst *string
	}{
		{"id", &rd.ID},
		{"name", &rd.Name},
		{"shortDescription", &short},
		{"fullDescription", &full},
		{"helpUri", &rd.HelpURI},
	}
	for _, field := range fields {
		ok, err := o.take(field.key, field.dst, path)
		if err != nil {
			return nil, err
		}
		switch {
		case ok && field.dst == &short:
			rd.ShortDescription = gosarif.NewMultiformatMessageString(short)
		case ok && field.dst == &full:
			rd.FullDescription = gosarif.NewMultiformatMessageString(full)
		}
	}

	var configuration string
	ok, err := o.take("configuration", &configuration, path)
	if err != nil {
		return nil, err
	}
	if ok {
		enabled := configuration != "disabled"
		if configuration != "enabled" && configuration != "disabled" {
			return nil, malformed(pointer(path, "configuration"), fmt.Errorf("unknown rule configuration %q", configuration))
		}
		rd.Enabled = &enabled
	}

	var level string
	ok, err = o.take("defaultLevel", &level, path)
	if err != nil {
		return nil, err
	}
	if ok {
		if _, rd.DefaultLevel, err = ParseLegacyLevel(level); err != nil {
			return nil, malformed(pointer(path, "defaultLevel"), err)
		}
		rd.HasDefaultLevel = true
	}

	if rd.Properties, err = o.takeMembers("properties", path); err != nil {
		return nil, err
	}
	rd.Extra = o.rest()
	return rd, nil
}

func encodeRuleV1(rd *RuleDescriptor) (interface{}, error) {
	if len(rd.ConfigExtra) > 0 {
		return nil, &NotRepresentableError{Field: "defaultConfiguration", Value: "parameters"}
	}
	out := newObject(rd.Extra)
	out["id"] = rd.ID
	putString(out, "name", rd.Name)
	descriptions := []struct {
		key  string
		desc *gosarif.MultiformatMessageString
	}{
		{"shortDescription", rd.ShortDescription},
		{"fullDescription", rd.FullDescription},
	}
	for _, d := range descriptions {
		key, desc := d.key, d.desc
		if desc == nil {
			continue
		}
		if desc.Markdown != nil || desc.Properties != nil {
			return nil, &NotRepresentableError{Field: key, Value: "markdown"}
		}
		if desc.Text != nil {
			out[key] = *desc.Text
		}
	}
	putString(out, "helpUri", rd.HelpURI)
	if rd.Enabled != nil {
		if *rd.Enabled {
			out["configuration"] = "enabled"
		} else {
			out["configuration"] = "disabled"
		}
	}
	if rd.HasDefaultLevel {
		term, exact := LegacyLevel(KindFail, rd.DefaultLevel)
		if !exact {
			return nil, &NotRepresentableError{Field: "defaultLevel", Value: rd.DefaultLevel.String()}
		}
		out["defaultLevel"] = term
	}
	putMembers(out, "properties", rd.Properties)
	return out, nil
}

func decodeResultV1(raw json.RawMessage, path string) (*Finding, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	f := &Finding{}
	if _, err := o.take("ruleId", &f.RuleID, path); err != nil {
		return nil, err
	}

	var level string
	ok, err := o.take("level", &level, path)
	if err != nil {
		return nil, err
	}
	if ok {
		if f.Kind, f.Level, err = ParseLegacyLevel(level); err != nil {
			return nil, malformed(pointer(path, "level"), err)
		}
		if term, _ := LegacyLevel(f.Kind, f.Level); term != level {
			f.LegacyLevel = level
		}
	} else {
		f.Kind, f.Level = KindFail, LevelWarning
		f.KindImplicit, f.LevelImplicit = true, true
	}

	var message string
	ok, err = o.take("message", &message, path)
	if err != nil {
		return nil, err
	}
	if ok {
		f.Message.Text = &message
	}

	var locations []json.RawMessage
	ok, err = o.take("locations", &locations, path)
	if err != nil {
		return nil, err
	}
	if ok {
		f.Locations = make([]*Location, 0, len(locations))
	}
	for i, l := range locations {
		loc, err := decodeLocationV1(l, pointer(path, "locations", i))
		if err != nil {
			return nil, err
		}
		f.Locations = append(f.Locations, loc)
	}

	var contribution string
	ok, err = o.take(ToolFingerprintKey, &contribution, path)
	if err != nil {
		return nil, err
	}
	if ok {
		f.PartialFingerprints = map[string]string{ToolFingerprintKey: contribution}
	}

	var state string
	ok, err = o.take("baselineState", &state, path)
	if err != nil {
		return nil, err
	}
	if ok {
		if f.BaselineState, err = ParseLegacyBaselineState(state); err != nil {
			return nil, malformed(pointer(path, "baselineState"), err)
		}
	}

	if f.Properties, err = o.takeMembers("properties", path); err != nil {
		return nil, err
	}
	f.Extra = o.rest()
	return f, nil
}

func encodeResultV1(f *Finding) (interface{}, error) {
	if f.GUID != "" || f.CorrelationGUID != "" {
		return nil, &NotRepresentableError{Field: "guid", Value: f.GUID + f.CorrelationGUID}
	}
	if len(f.Fingerprints) > 0 {
		return nil, &NotRepresentableError{Field: "fingerprints", Value: fmt.Sprint(len(f.Fingerprints))}
	}
	for k := range f.PartialFingerprints {
		if k != ToolFingerprintKey {
			return nil, &NotRepresentableError{Field: "partialFingerprints", Value: k}
		}
	}
	m := f.Message
	if m.Markdown != nil || m.ID != nil || m.Arguments != nil || m.Properties != nil || len(f.MessageExtra) > 0 {
		return nil, &NotRepresentableError{Field: "message", Value: "markdown"}
	}

	out := newObject(f.Extra)
	putString(out, "ruleId", f.RuleID)
	if !(f.LevelImplicit && f.KindImplicit) {
		term, exact := LegacyLevel(f.Kind, f.Level)
		if f.LegacyLevel != "" {
			if k, l, err := ParseLegacyLevel(f.LegacyLevel); err == nil && k == f.Kind && l == f.Level {
				term, exact = f.LegacyLevel, true
			}
		}
		if !exact {
			return nil, &NotRepresentableError{Field: "level", Value: f.Kind.String() + "/" + f.Level.String()}
		}
		out["level"] = term
	}
	if m.Text != nil {
		out["message"] = *m.Text
	}
	if f.Locations != nil {
		locations := make([]interface{}, 0, len(f.Locations))
		for i, l := range f.Locations {
			encoded, err := encodeLocationV1(l)
			if err != nil {
				return nil, fmt.Errorf("location %d: %w", i, err)
			}
			locations = append(locations, encoded)
		}
		out["locations"] = locations
	}
	if v, ok := f.PartialFingerprints[ToolFingerprintKey]; ok {
		out[ToolFingerprintKey] = v
	}
	if f.BaselineState != BaselineNone {
		term, exact := LegacyBaselineState(f.BaselineState)
		if !exact {
			return nil, &NotRepresentableError{Field: "baselineState", Value: f.BaselineState.String()}
		}
		out["baselineState"] = term
	}
	putMembers(out, "properties", f.Properties)
	return out, nil
}

func decodeLocationV1(raw json.RawMessage, path string) (*Location, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	loc := &Location{}
	file, err := o.takeObject("resultFile", path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		filePath := pointer(path, "resultFile")
		if _, err := file.take("uri", &loc.URI, filePath); err != nil {
			return nil, err
		}
		if _, err := file.take("uriBaseId", &loc.URIBaseID, filePath); err != nil {
			return nil, err
		}
		if loc.Region, loc.RegionExtra, err = decodeRegion(file, "region", filePath, 1); err != nil {
			return nil, err
		}
		loc.PhysicalExtra = file.rest()
	}
	loc.Extra = o.rest()
	return loc, nil
}

func encodeLocationV1(l *Location) (interface{}, error) {
	if len(l.ArtifactExtra) > 0 {
		return nil, &NotRepresentableError{Field: "artifactLocation", Value: "members"}
	}
	out := newObject(l.Extra)
	hasRegion := l.Region != nil || l.RegionExtra != nil
	if l.URI == "" && l.URIBaseID == "" && !hasRegion && l.PhysicalExtra == nil {
		return out, nil
	}
	file := newObject(l.PhysicalExtra)
	putString(file, "uri", l.URI)
	putString(file, "uriBaseId", l.URIBaseID)
	if l.Region != nil && !RegionFitsV1(l.Region) {
		return nil, &NotRepresentableError{Field: "region", Value: "members"}
	}
	if hasRegion {
		file["region"] = encodeRegion(l.Region, l.RegionExtra, 1)
	}
	out["resultFile"] = file
	return out, nil
}

// RegionFitsV1 reports whether every set member of r exists in a 1.0.0 region.
func RegionFitsV1(r *gosarif.Region) bool {
	return r.ByteOffset == nil && r.ByteLength == nil && r.Snippet == nil &&
		r.Message == nil && r.SourceLanguage == nil && r.Properties == nil
}
