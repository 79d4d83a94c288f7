package transcode

import (
	gosarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// locationSide holds the parts of one location that the other generation cannot carry.
type locationSide struct {
	Extra         sarif.Members   `json:"extra,omitempty"`
	PhysicalExtra sarif.Members   `json:"physicalExtra,omitempty"`
	ArtifactExtra sarif.Members   `json:"artifactExtra,omitempty"`
	Region        *gosarif.Region `json:"region,omitempty"`
	RegionExtra   sarif.Members   `json:"regionExtra,omitempty"`
}

func (s *locationSide) empty() bool {
	return s == nil || (s.Extra == nil && s.PhysicalExtra == nil && s.ArtifactExtra == nil && s.Region == nil && s.RegionExtra == nil)
}

// messageSide is a 2.x message as stashed in a 1.0.0 property bag. Arguments
// is always written so an empty list survives.
type messageSide struct {
	Text       *string            `json:"text,omitempty"`
	Markdown   *string            `json:"markdown,omitempty"`
	ID         *string            `json:"id,omitempty"`
	Arguments  []string           `json:"arguments"`
	Properties gosarif.Properties `json:"properties,omitempty"`
	Extra      sarif.Members      `json:"extra,omitempty"`
}

// Downgrade converts a 2.x document to 1.0.0.
func Downgrade(doc *sarif.Document) (*sarif.Document, []Warning) {
	out := doc.Clone()
	if doc.Version.Generation() == 1 {
		return out, nil
	}
	out.Version = sarif.Version1
	out.Schema = LegacySchemaURI

	var warnings []Warning
	for i, run := range out.Runs {
		warnings = append(warnings, downgradeRun(run, i)...)
	}
	return out, warnings
}

func downgradeRun(run *sarif.Run, index int) []Warning {
	var warnings []Warning

	stashMembers(&run.Properties, keyTool, run.Tool.Outer)
	run.Tool.Outer = nil
	stashMembers(&run.Tool.Properties, keyExtra, run.Tool.Extra)
	run.Tool.Extra = unstashMembers(&run.Tool.Properties, keyLegacyExtra)

	if len(run.Invocations) > 1 {
		stash(&run.Properties, keyInvocations, run.Invocations[1:])
		run.Invocations = run.Invocations[:1]
	}

	for ri, rd := range run.Rules {
		if w, ok := downgradeRule(rd); ok {
			w.Path = sarif.Pointer("", "runs", index, "tool", "driver", "rules", ri)
			warnings = append(warnings, w)
		}
	}

	for i, f := range run.Findings {
		warnings = append(warnings, downgradeFinding(f, sarif.ResultPointer(index, i))...)
	}

	stashMembers(&run.Properties, keyExtra, run.Extra)
	run.Extra = unstashMembers(&run.Properties, keyLegacyExtra)
	return warnings
}

func downgradeRule(rd *sarif.RuleDescriptor) (Warning, bool) {
	var (
		warning Warning
		lossy   bool
	)
	if rd.HasDefaultLevel {
		if term, exact := sarif.LegacyLevel(sarif.KindFail, rd.DefaultLevel); !exact {
			warning = Warning{Field: "defaultLevel", Value: rd.DefaultLevel.String(), Fallback: term}
			lossy = true
			stash(&rd.Properties, keyDefaultLevel, rd.DefaultLevel.String())
			_, rd.DefaultLevel, _ = sarif.ParseLegacyLevel(term)
		}
	}

	descriptions := map[string]*gosarif.MultiformatMessageString{}
	for key, desc := range map[string]**gosarif.MultiformatMessageString{
		"shortDescription": &rd.ShortDescription,
		"fullDescription":  &rd.FullDescription,
	} {
		d := *desc
		if d == nil || (d.Markdown == nil && d.Properties == nil) {
			continue
		}
		descriptions[key] = d
		text := d.Markdown
		if d.Text != nil {
			text = d.Text
		}
		*desc = &gosarif.MultiformatMessageString{Text: text}
	}
	if len(descriptions) > 0 {
		stash(&rd.Properties, keyDescriptions, descriptions)
	}

	stashMembers(&rd.Properties, keyConfiguration, rd.ConfigExtra)
	rd.ConfigExtra = nil
	stashMembers(&rd.Properties, keyExtra, rd.Extra)
	rd.Extra = unstashMembers(&rd.Properties, keyLegacyExtra)
	return warning, lossy
}

func downgradeFinding(f *sarif.Finding, path string) []Warning {
	var warnings []Warning

	// 1.0.0 readers assume fail/warning when no level is written.
	if f.Kind == sarif.KindFail && f.Level == sarif.LevelWarning {
		f.LevelImplicit = f.KindImplicit
	} else {
		f.LevelImplicit, f.KindImplicit = false, false
	}
	term, exact := sarif.LegacyLevel(f.Kind, f.Level)
	if !exact {
		warnings = append(warnings, Warning{
			Path:     path,
			Field:    "level",
			Value:    f.Kind.String() + "/" + f.Level.String(),
			Fallback: term,
		})
		stash(&f.Properties, keyKind, f.Kind.String())
		stash(&f.Properties, keyLevel, f.Level.String())
		f.Kind, f.Level, _ = sarif.ParseLegacyLevel(term)
	}
	var legacy string
	if unstash(&f.Properties, keyLegacyLevel, &legacy) {
		if k, l, err := sarif.ParseLegacyLevel(legacy); err == nil && k == f.Kind && l == f.Level {
			f.LegacyLevel = legacy
		}
	}

	if stateTerm, exact := sarif.LegacyBaselineState(f.BaselineState); !exact {
		warnings = append(warnings, Warning{
			Path:     path,
			Field:    "baselineState",
			Value:    f.BaselineState.String(),
			Fallback: stateTerm,
		})
		stash(&f.Properties, keyBaselineState, f.BaselineState.String())
		f.BaselineState, _ = sarif.ParseLegacyBaselineState(stateTerm)
	}

	m := f.Message
	if m.Markdown != nil || m.ID != nil || m.Arguments != nil || m.Properties != nil || f.MessageExtra != nil {
		stash(&f.Properties, keyMessage, messageSide{
			Text:       m.Text,
			Markdown:   m.Markdown,
			ID:         m.ID,
			Arguments:  m.Arguments,
			Properties: m.Properties,
			Extra:      f.MessageExtra,
		})
		text := m.Text
		if text == nil {
			text = m.Markdown
		}
		f.Message = gosarif.Message{Text: text}
		f.MessageExtra = nil
	}

	if len(f.Fingerprints) > 0 {
		stash(&f.Properties, keyFingerprints, f.Fingerprints)
		f.Fingerprints = nil
	}
	if partial := withoutToolFingerprint(f.PartialFingerprints); len(partial) > 0 {
		stash(&f.Properties, keyPartialFingerprints, partial)
		if v, ok := f.PartialFingerprints[sarif.ToolFingerprintKey]; ok {
			f.PartialFingerprints = map[string]string{sarif.ToolFingerprintKey: v}
		} else {
			f.PartialFingerprints = nil
		}
	}
	if f.GUID != "" {
		stash(&f.Properties, keyGUID, f.GUID)
		f.GUID = ""
	}
	if f.CorrelationGUID != "" {
		stash(&f.Properties, keyCorrelationGUID, f.CorrelationGUID)
		f.CorrelationGUID = ""
	}

	downgradeLocations(f)

	stashMembers(&f.Properties, keyExtra, f.Extra)
	f.Extra = unstashMembers(&f.Properties, keyLegacyExtra)
	return warnings
}

func downgradeLocations(f *sarif.Finding) {
	sides := make([]*locationSide, len(f.Locations))
	kept := false
	for i, loc := range f.Locations {
		side := &locationSide{
			Extra:         loc.Extra,
			PhysicalExtra: loc.PhysicalExtra,
			ArtifactExtra: loc.ArtifactExtra,
			RegionExtra:   loc.RegionExtra,
		}
		if loc.Region != nil && !sarif.RegionFitsV1(loc.Region) {
			side.Region = loc.Region
			loc.Region = &gosarif.Region{
				StartLine:   loc.Region.StartLine,
				StartColumn: loc.Region.StartColumn,
				EndLine:     loc.Region.EndLine,
				EndColumn:   loc.Region.EndColumn,
				CharOffset:  loc.Region.CharOffset,
				CharLength:  loc.Region.CharLength,
			}
		}
		loc.Extra, loc.PhysicalExtra, loc.ArtifactExtra, loc.RegionExtra = nil, nil, nil, nil
		if !side.empty() {
			sides[i] = side
			kept = true
		}
	}
	if kept {
		stash(&f.Properties, keyLocations, sides)
	}

	var legacy []*locationSide
	if unstash(&f.Properties, keyLegacyLocations, &legacy) {
		for i, side := range legacy {
			if side == nil || i >= len(f.Locations) {
				continue
			}
			f.Locations[i].Extra = side.Extra
			f.Locations[i].PhysicalExtra = side.PhysicalExtra
			f.Locations[i].RegionExtra = side.RegionExtra
		}
	}
}

func withoutToolFingerprint(m map[string]string) map[string]string {
	var out map[string]string
	for k, v := range m {
		if k == sarif.ToolFingerprintKey {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}
