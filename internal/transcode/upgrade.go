package transcode

import (
	"encoding/json"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// Upgrade converts a 1.0.0 document to 2.1.0. Every 1.0.0 value has a 2.x
// form, so upgrading never warns.
func Upgrade(doc *sarif.Document) (*sarif.Document, []Warning) {
	out := doc.Clone()
	if doc.Version.Generation() == 2 {
		return out, nil
	}
	out.Version = sarif.Version2
	out.Schema = currentSchemaURI()
	for _, run := range out.Runs {
		upgradeRun(run)
	}
	return out, nil
}

func upgradeRun(run *sarif.Run) {
	stashMembers(&run.Tool.Properties, keyLegacyExtra, run.Tool.Extra)
	run.Tool.Extra = unstashMembers(&run.Tool.Properties, keyExtra)
	run.Tool.Outer = unstashMembers(&run.Properties, keyTool)

	var invocations []json.RawMessage
	if unstash(&run.Properties, keyInvocations, &invocations) {
		run.Invocations = append(run.Invocations, invocations...)
	}

	for _, rd := range run.Rules {
		upgradeRule(rd)
	}
	rules := run.RuleIndex()
	for _, f := range run.Findings {
		upgradeFinding(f, rules)
	}

	stashMembers(&run.Properties, keyLegacyExtra, run.Extra)
	run.Extra = unstashMembers(&run.Properties, keyExtra)
}

func upgradeRule(rd *sarif.RuleDescriptor) {
	var level string
	if unstash(&rd.Properties, keyDefaultLevel, &level) {
		if l, err := sarif.ParseLevel(level); err == nil {
			rd.DefaultLevel = l
		}
	}

	var descriptions map[string]*gosarif.MultiformatMessageString
	if unstash(&rd.Properties, keyDescriptions, &descriptions) {
		if d, ok := descriptions["shortDescription"]; ok {
			rd.ShortDescription = d
		}
		if d, ok := descriptions["fullDescription"]; ok {
			rd.FullDescription = d
		}
	}
	rd.ConfigExtra = unstashMembers(&rd.Properties, keyConfiguration)

	stashMembers(&rd.Properties, keyLegacyExtra, rd.Extra)
	rd.Extra = unstashMembers(&rd.Properties, keyExtra)
}

func upgradeFinding(f *sarif.Finding, rules map[string]*sarif.RuleDescriptor) {
	if f.LegacyLevel != "" {
		stash(&f.Properties, keyLegacyLevel, f.LegacyLevel)
		f.LegacyLevel = ""
	}

	var kind, level string
	hasKind := unstash(&f.Properties, keyKind, &kind)
	hasLevel := unstash(&f.Properties, keyLevel, &level)
	if hasKind && hasLevel {
		k, kerr := sarif.ParseKind(kind)
		l, lerr := sarif.ParseLevel(level)
		if kerr == nil && lerr == nil {
			// Restore only while the finding still carries the fallback it was written with.
			fallback, _ := sarif.LegacyLevel(k, l)
			if current, _ := sarif.LegacyLevel(f.Kind, f.Level); current == fallback {
				f.Kind, f.Level = k, l
				f.KindImplicit, f.LevelImplicit = false, false
			}
		}
	}

	var state string
	if unstash(&f.Properties, keyBaselineState, &state) {
		if s, err := sarif.ParseBaselineState(state); err == nil {
			if fallback, _ := sarif.LegacyBaselineState(s); fallback != "" {
				if current, _ := sarif.LegacyBaselineState(f.BaselineState); current == fallback {
					f.BaselineState = s
				}
			}
		}
	}

	var message messageSide
	if unstash(&f.Properties, keyMessage, &message) {
		f.Message = gosarif.Message{
			Text:      message.Text,
			Markdown:  message.Markdown,
			ID:        message.ID,
			Arguments: message.Arguments,
		}
		f.Message.Properties = message.Properties
		f.MessageExtra = message.Extra
	}

	var fingerprints, partial map[string]string
	if unstash(&f.Properties, keyFingerprints, &fingerprints) {
		f.Fingerprints = fingerprints
	}
	if unstash(&f.Properties, keyPartialFingerprints, &partial) {
		if f.PartialFingerprints == nil {
			f.PartialFingerprints = map[string]string{}
		}
		for k, v := range partial {
			f.PartialFingerprints[k] = v
		}
	}
	unstash(&f.Properties, keyGUID, &f.GUID)
	unstash(&f.Properties, keyCorrelationGUID, &f.CorrelationGUID)

	upgradeLocations(f)

	if f.LevelImplicit && f.Level != impliedLevel(f, rules) {
		f.LevelImplicit = false
	}

	stashMembers(&f.Properties, keyLegacyExtra, f.Extra)
	f.Extra = unstashMembers(&f.Properties, keyExtra)
}

// impliedLevel is the level a 2.x reader assumes when none is written.
func impliedLevel(f *sarif.Finding, rules map[string]*sarif.RuleDescriptor) sarif.Level {
	if f.Kind != sarif.KindFail {
		return sarif.LevelNone
	}
	if rd, ok := rules[f.RuleID]; ok && rd.HasDefaultLevel {
		return rd.DefaultLevel
	}
	return sarif.LevelWarning
}

func upgradeLocations(f *sarif.Finding) {
	sides := make([]*locationSide, len(f.Locations))
	kept := false
	for i, loc := range f.Locations {
		side := &locationSide{Extra: loc.Extra, PhysicalExtra: loc.PhysicalExtra, RegionExtra: loc.RegionExtra}
		loc.Extra, loc.PhysicalExtra, loc.RegionExtra = nil, nil, nil
		if !side.empty() {
			sides[i] = side
			kept = true
		}
	}
	if kept {
		stash(&f.Properties, keyLegacyLocations, sides)
	}

	var current []*locationSide
	if unstash(&f.Properties, keyLocations, &current) {
		for i, side := range current {
			if side == nil || i >= len(f.Locations) {
				continue
			}
			loc := f.Locations[i]
			loc.Extra, loc.PhysicalExtra, loc.ArtifactExtra = side.Extra, side.PhysicalExtra, side.ArtifactExtra
			loc.RegionExtra = side.RegionExtra
			if side.Region != nil {
				loc.Region = side.Region
			}
		}
	}
}
