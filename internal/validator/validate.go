// Package validator checks analysis logs against a structural schema and a
// set of built-in rules, and folds what it finds into the log as findings.
package validator

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	gosarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

const (
	// SchemaRuleID identifies findings raised for schema violations.
	SchemaRuleID = "JSON0001"
	// PointerFingerprint is the partial fingerprint holding the JSON pointer a validator finding refers to.
	PointerFingerprint = "jsonPointer/v1"

	toolName     = "sariftool"
	toolFullName = "sariftool validator"
)

var guidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/scan-io-git/sariftool/validator"))

var schemaRule = &Rule{
	ID:           SchemaRuleID,
	Name:         "LogMustConformToSchema",
	Description:  "The log conforms to the schema of its declared version.",
	DefaultLevel: sarif.LevelError,
}

// Validate returns run index of doc with policy applied, followed by a
// finding per schema violation and per built-in rule problem. The document
// is not modified. It returns nil when doc has no run at index.
func Validate(doc *sarif.Document, index int, violations []SchemaViolation, p Policy, target string) *sarif.Run {
	if index < 0 || index >= len(doc.Runs) {
		return nil
	}
	return validateRun(doc.Runs[index].Clone(), doc.Version, index, violations, p, target)
}

// ValidateDocument validates every run of doc. Violations are routed to the
// run their pointer lies in; the rest go to the first run, or to a run of
// the validator's own when doc has none.
func ValidateDocument(doc *sarif.Document, violations []SchemaViolation, p Policy, target string) *sarif.Document {
	out := doc.Clone()
	if len(out.Runs) == 0 {
		if len(violations) == 0 {
			return out
		}
		run := &sarif.Run{Tool: sarif.Tool{Name: toolName, FullName: toolFullName}}
		out.Runs = []*sarif.Run{validateRun(run, out.Version, 0, violations, p, target)}
		return out
	}

	routed := make(map[int][]SchemaViolation)
	for _, v := range violations {
		i := runOf(v.Path, len(out.Runs))
		routed[i] = append(routed[i], v)
	}
	for i, run := range out.Runs {
		out.Runs[i] = validateRun(run, out.Version, i, routed[i], p, target)
	}
	return out
}

// validateRun edits run in place and returns it.
func validateRun(run *sarif.Run, version sarif.Version, index int, violations []SchemaViolation, p Policy, target string) *sarif.Run {
	var (
		extra []*sarif.Finding
		used  []*Rule
	)

	if len(violations) > 0 {
		used = append(used, schemaRule)
		for _, v := range violations {
			extra = append(extra, newFinding(schemaRule.ID, sarif.LevelError, target, v.Path, v.Message))
		}
	}

	for _, rule := range BuiltinRules {
		if !p.Enabled(rule.ID) {
			continue
		}
		level := p.Level(rule.ID, rule.DefaultLevel)
		before := len(extra)
		rule.check(&checkContext{
			version: version,
			index:   index,
			run:     run,
			report: func(pointer, message string) {
				extra = append(extra, newFinding(rule.ID, level, target, pointer, message))
			},
		})
		if len(extra) > before {
			used = append(used, rule)
		}
	}

	run = applyRunPolicy(run, p)
	if len(extra) == 0 {
		return run
	}
	run.Findings = append(run.Findings, extra...)
	for _, rule := range used {
		run.AddRule(descriptor(rule))
	}
	return run
}

func newFinding(ruleID string, level sarif.Level, target, pointer, message string) *sarif.Finding {
	shown := pointer
	if shown == "" {
		shown = "/"
	}
	f := &sarif.Finding{
		RuleID:              ruleID,
		Kind:                sarif.KindFail,
		Level:               level,
		Message:             *gosarif.NewTextMessage(fmt.Sprintf("%s: %s", shown, message)),
		PartialFingerprints: map[string]string{PointerFingerprint: pointer},
		GUID:                findingGUID(target, ruleID, pointer, message),
	}
	if target != "" {
		f.Locations = []*sarif.Location{{URI: filepath.ToSlash(target)}}
	}
	return f
}

// findingGUID is stable for the same problem in the same target.
func findingGUID(parts ...string) string {
	return uuid.NewSHA1(guidNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

func descriptor(r *Rule) *sarif.RuleDescriptor {
	return &sarif.RuleDescriptor{
		ID:               r.ID,
		Name:             r.Name,
		ShortDescription: gosarif.NewMultiformatMessageString(r.Description),
		DefaultLevel:     r.DefaultLevel,
		HasDefaultLevel:  true,
	}
}

// runOf returns the run index a pointer lies in, or 0.
func runOf(pointer string, runs int) int {
	parts := strings.SplitN(pointer, "/", 4)
	if len(parts) < 3 || parts[0] != "" || parts[1] != "runs" {
		return 0
	}
	i, err := strconv.Atoi(parts[2])
	if err != nil || i < 0 || i >= runs {
		return 0
	}
	return i
}
