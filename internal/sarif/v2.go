package sarif

import (
	"encoding/json"
	"errors"
)

func decodeToolFields(o object, tool *Tool, path string) error {
	fields := []struct {
		key string
		dst *string
	}{
		{"name", &tool.Name},
		{"fullName", &tool.FullName},
		{"version", &tool.Version},
		{"semanticVersion", &tool.SemanticVersion},
	}
	for _, field := range fields {
		if _, err := o.take(field.key, field.dst, path); err != nil {
			return err
		}
	}
	props, err := o.takeMembers("properties", path)
	if err != nil {
		return err
	}
	tool.Properties = props
	return nil
}

func encodeToolFields(out map[string]interface{}, tool Tool) {
	putString(out, "name", tool.Name)
	putString(out, "fullName", tool.FullName)
	putString(out, "version", tool.Version)
	putString(out, "semanticVersion", tool.SemanticVersion)
	putMembers(out, "properties", tool.Properties)
}

func decodeRunV2(raw json.RawMessage, path string) (*Run, error) {
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
		toolPath := pointer(path, "tool")
		driver, err := toolObj.takeObject("driver", toolPath)
		if err != nil {
			return nil, err
		}
		if driver != nil {
			driverPath := pointer(toolPath, "driver")
			if err := decodeToolFields(driver, &run.Tool, driverPath); err != nil {
				return nil, err
			}
			var rules []json.RawMessage
			ok, err := driver.take("rules", &rules, driverPath)
			if err != nil {
				return nil, err
			}
			if ok {
				run.Rules = make([]*RuleDescriptor, 0, len(rules))
			}
			for i, r := range rules {
				rd, err := decodeRuleV2(r, pointer(driverPath, "rules", i))
				if err != nil {
					return nil, err
				}
				run.Rules = append(run.Rules, rd)
			}
			run.Tool.Extra = driver.rest()
		}
		run.Tool.Outer = toolObj.rest()
	}

	if _, err := o.take("invocations", &run.Invocations, path); err != nil {
		return nil, err
	}

	var results []json.RawMessage
	ok, err := o.take("results", &results, path)
	if err != nil {
		return nil, err
	}
	if ok {
		run.Findings = make([]*Finding, 0, len(results))
	}
	rules := run.RuleIndex()
	for i, r := range results {
		f, err := decodeResultV2(r, pointer(path, "results", i), rules)
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

func encodeRunV2(run *Run) (interface{}, error) {
	out := newObject(run.Extra)

	driver := newObject(run.Tool.Extra)
	encodeToolFields(driver, run.Tool)
	if run.Rules != nil {
		rules := make([]interface{}, 0, len(run.Rules))
		for _, rd := range run.Rules {
			rules = append(rules, encodeRuleV2(rd))
		}
		driver["rules"] = rules
	}
	tool := newObject(run.Tool.Outer)
	tool["driver"] = driver
	out["tool"] = tool

	if run.Invocations != nil {
		out["invocations"] = run.Invocations
	}
	if run.Findings != nil {
		results := make([]interface{}, 0, len(run.Findings))
		for _, f := range run.Findings {
			results = append(results, encodeResultV2(f))
		}
		out["results"] = results
	}
	putMembers(out, "properties", run.Properties)
	return out, nil
}

func decodeRuleV2(raw json.RawMessage, path string) (*RuleDescriptor, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	rd := &RuleDescriptor{}
	fields := []struct {
		key string
		dst interface{}
	}{
		{"id", &rd.ID},
		{"name", &rd.Name},
		{"shortDescription", &rd.ShortDescription},
		{"fullDescription", &rd.FullDescription},
		{"helpUri", &rd.HelpURI},
	}
	for _, field := range fields {
		if _, err := o.take(field.key, field.dst, path); err != nil {
			return nil, err
		}
	}

	cfg, err := o.takeObject("defaultConfiguration", path)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		cfgPath := pointer(path, "defaultConfiguration")
		var level string
		ok, err := cfg.take("level", &level, cfgPath)
		if err != nil {
			return nil, err
		}
		if ok {
			if rd.DefaultLevel, err = ParseLevel(level); err != nil {
				return nil, malformed(pointer(cfgPath, "level"), err)
			}
			rd.HasDefaultLevel = true
		}
		if _, err := cfg.take("enabled", &rd.Enabled, cfgPath); err != nil {
			return nil, err
		}
		rd.ConfigExtra = cfg.rest()
	}

	if rd.Properties, err = o.takeMembers("properties", path); err != nil {
		return nil, err
	}
	rd.Extra = o.rest()
	return rd, nil
}

func encodeRuleV2(rd *RuleDescriptor) interface{} {
	out := newObject(rd.Extra)
	out["id"] = rd.ID
	putString(out, "name", rd.Name)
	if rd.ShortDescription != nil {
		out["shortDescription"] = rd.ShortDescription
	}
	if rd.FullDescription != nil {
		out["fullDescription"] = rd.FullDescription
	}
	putString(out, "helpUri", rd.HelpURI)
	if rd.HasDefaultLevel || rd.Enabled != nil || len(rd.ConfigExtra) > 0 {
		cfg := newObject(rd.ConfigExtra)
		if rd.HasDefaultLevel {
			cfg["level"] = rd.DefaultLevel.String()
		}
		if rd.Enabled != nil {
			cfg["enabled"] = *rd.Enabled
		}
		out["defaultConfiguration"] = cfg
	}
	putMembers(out, "properties", rd.Properties)
	return out
}

// defaultLevel resolves an absent 2.x level: none for non-failures, else the
// rule's configured default, else warning.
func defaultLevel(f *Finding, rules map[string]*RuleDescriptor) Level {
	if f.Kind != KindFail {
		return LevelNone
	}
	if rd, ok := rules[f.RuleID]; ok && rd.HasDefaultLevel {
		return rd.DefaultLevel
	}
	return LevelWarning
}

func decodeResultV2(raw json.RawMessage, path string, rules map[string]*RuleDescriptor) (*Finding, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	f := &Finding{}
	if _, err := o.take("ruleId", &f.RuleID, path); err != nil {
		return nil, err
	}

	var kind string
	ok, err := o.take("kind", &kind, path)
	if err != nil {
		return nil, err
	}
	if ok {
		if f.Kind, err = ParseKind(kind); err != nil {
			return nil, malformed(pointer(path, "kind"), err)
		}
	} else {
		f.Kind, f.KindImplicit = KindFail, true
	}

	var level string
	ok, err = o.take("level", &level, path)
	if err != nil {
		return nil, err
	}
	if ok {
		if f.Level, err = ParseLevel(level); err != nil {
			return nil, malformed(pointer(path, "level"), err)
		}
	} else {
		f.Level, f.LevelImplicit = defaultLevel(f, rules), true
	}

	if f.Message, f.MessageExtra, err = decodeMessage(o, "message", path); err != nil {
		return nil, err
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
		loc, err := decodeLocationV2(l, pointer(path, "locations", i))
		if err != nil {
			return nil, err
		}
		f.Locations = append(f.Locations, loc)
	}

	if _, err := o.take("fingerprints", &f.Fingerprints, path); err != nil {
		return nil, err
	}
	if _, err := o.take("partialFingerprints", &f.PartialFingerprints, path); err != nil {
		return nil, err
	}

	var state string
	ok, err = o.take("baselineState", &state, path)
	if err != nil {
		return nil, err
	}
	if ok {
		f.BaselineState, err = ParseBaselineState(state)
		if err == nil && f.BaselineState == BaselineNone {
			err = errors.New(`baseline state "none" is not a wire value`)
		}
		if err != nil {
			return nil, malformed(pointer(path, "baselineState"), err)
		}
	}

	if _, err := o.take("guid", &f.GUID, path); err != nil {
		return nil, err
	}
	if _, err := o.take("correlationGuid", &f.CorrelationGUID, path); err != nil {
		return nil, err
	}
	if f.Properties, err = o.takeMembers("properties", path); err != nil {
		return nil, err
	}
	f.Extra = o.rest()
	return f, nil
}

func encodeResultV2(f *Finding) interface{} {
	out := newObject(f.Extra)
	putString(out, "ruleId", f.RuleID)
	if !f.KindImplicit {
		out["kind"] = f.Kind.String()
	}
	if !f.LevelImplicit {
		out["level"] = f.Level.String()
	}
	if hasMessage(f) {
		out["message"] = encodeMessage(f.Message, f.MessageExtra)
	}
	if f.Locations != nil {
		locations := make([]interface{}, 0, len(f.Locations))
		for _, l := range f.Locations {
			locations = append(locations, encodeLocationV2(l))
		}
		out["locations"] = locations
	}
	putStrings(out, "fingerprints", f.Fingerprints)
	putStrings(out, "partialFingerprints", f.PartialFingerprints)
	if f.BaselineState != BaselineNone {
		out["baselineState"] = f.BaselineState.String()
	}
	putString(out, "guid", f.GUID)
	putString(out, "correlationGuid", f.CorrelationGUID)
	putMembers(out, "properties", f.Properties)
	return out
}

func hasMessage(f *Finding) bool {
	m := f.Message
	return m.Text != nil || m.Markdown != nil || m.ID != nil || m.Arguments != nil || m.Properties != nil ||
		f.MessageExtra != nil
}

func decodeLocationV2(raw json.RawMessage, path string) (*Location, error) {
	o, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	loc := &Location{}
	phys, err := o.takeObject("physicalLocation", path)
	if err != nil {
		return nil, err
	}
	if phys != nil {
		physPath := pointer(path, "physicalLocation")
		art, err := phys.takeObject("artifactLocation", physPath)
		if err != nil {
			return nil, err
		}
		if art != nil {
			artPath := pointer(physPath, "artifactLocation")
			if _, err := art.take("uri", &loc.URI, artPath); err != nil {
				return nil, err
			}
			if _, err := art.take("uriBaseId", &loc.URIBaseID, artPath); err != nil {
				return nil, err
			}
			loc.ArtifactExtra = art.rest()
		}
		if loc.Region, loc.RegionExtra, err = decodeRegion(phys, "region", physPath, 2); err != nil {
			return nil, err
		}
		loc.PhysicalExtra = phys.rest()
	}
	loc.Extra = o.rest()
	return loc, nil
}

func encodeLocationV2(l *Location) interface{} {
	out := newObject(l.Extra)
	hasRegion := l.Region != nil || l.RegionExtra != nil
	if l.URI == "" && l.URIBaseID == "" && l.ArtifactExtra == nil && !hasRegion && l.PhysicalExtra == nil {
		return out
	}
	phys := newObject(l.PhysicalExtra)
	if l.URI != "" || l.URIBaseID != "" || l.ArtifactExtra != nil {
		art := newObject(l.ArtifactExtra)
		putString(art, "uri", l.URI)
		putString(art, "uriBaseId", l.URIBaseID)
		phys["artifactLocation"] = art
	}
	if hasRegion {
		phys["region"] = encodeRegion(l.Region, l.RegionExtra, 2)
	}
	out["physicalLocation"] = phys
	return out
}
