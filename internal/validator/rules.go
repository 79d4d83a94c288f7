package validator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// Rule is a built-in check over a parsed log.
type Rule struct {
	ID           string
	Name         string
	Description  string
	DefaultLevel sarif.Level
	check        func(c *checkContext)
}

// checkContext is the run under inspection plus a sink for problems.
type checkContext struct {
	version sarif.Version
	index   int
	run     *sarif.Run
	report  func(pointer, message string)
}

// BuiltinRules lists the checks run on every log, in reporting order.
var BuiltinRules = []*Rule{
	{
		ID:           "SARIF1001",
		Name:         "RuleIdentifiersMustBeValid",
		Description:  "Every result names the rule that produced it.",
		DefaultLevel: sarif.LevelError,
		check:        checkRuleIdentifiers,
	},
	{
		ID:           "SARIF1002",
		Name:         "UrisMustBeValid",
		Description:  "Location URIs are valid URI references.",
		DefaultLevel: sarif.LevelError,
		check:        checkURIs,
	},
	{
		ID:           "SARIF1007",
		Name:         "RegionsMustBeProperlyConstructed",
		Description:  "Region bounds are ordered and one-based.",
		DefaultLevel: sarif.LevelError,
		check:        checkRegions,
	},
	{
		ID:           "SARIF1012",
		Name:         "KindAndLevelMustBeConsistent",
		Description:  "Only failing results carry a warning or error level.",
		DefaultLevel: sarif.LevelError,
		check:        checkKindAndLevel,
	},
	{
		ID:           "SARIF2002",
		Name:         "ProvideMessageText",
		Description:  "Results carry a message a reader can see.",
		DefaultLevel: sarif.LevelWarning,
		check:        checkMessages,
	},
	{
		ID:           "SARIF2005",
		Name:         "ProvideRuleMetadata",
		Description:  "Rules referenced by results have descriptors.",
		DefaultLevel: sarif.LevelNote,
		check:        checkRuleMetadata,
	},
}

func checkRuleIdentifiers(c *checkContext) {
	for i, f := range c.run.Findings {
		if strings.TrimSpace(f.RuleID) == "" {
			c.report(sarif.ResultPointer(c.index, i), "result has no rule identifier")
		}
	}
}

func checkURIs(c *checkContext) {
	for i, f := range c.run.Findings {
		for j, loc := range f.Locations {
			if loc.URI == "" {
				continue
			}
			if _, err := url.Parse(loc.URI); err != nil || strings.ContainsAny(loc.URI, "\\ \t") {
				c.report(sarif.URIPointer(c.version, c.index, i, j),
					fmt.Sprintf("%q is not a valid URI reference", loc.URI))
			}
		}
	}
}

func checkRegions(c *checkContext) {
	for i, f := range c.run.Findings {
		for j, loc := range f.Locations {
			r := loc.Region
			if r == nil {
				continue
			}
			ptr := sarif.RegionPointer(c.version, c.index, i, j)
			switch {
			case r.StartLine == nil && r.EndLine != nil:
				c.report(ptr, "endLine is set without startLine")
			case r.StartLine != nil && *r.StartLine < 1:
				c.report(ptr, fmt.Sprintf("startLine %d is not positive", *r.StartLine))
			case r.StartLine != nil && r.EndLine != nil && *r.EndLine < *r.StartLine:
				c.report(ptr, fmt.Sprintf("endLine %d precedes startLine %d", *r.EndLine, *r.StartLine))
			case r.StartColumn != nil && r.EndColumn != nil && *r.EndColumn < *r.StartColumn &&
				(r.EndLine == nil || r.StartLine == nil || *r.EndLine == *r.StartLine):
				c.report(ptr, fmt.Sprintf("endColumn %d precedes startColumn %d", *r.EndColumn, *r.StartColumn))
			}
		}
	}
}

func checkKindAndLevel(c *checkContext) {
	for i, f := range c.run.Findings {
		if f.Kind != sarif.KindFail && f.Level.Blocking() {
			c.report(sarif.ResultPointer(c.index, i),
				fmt.Sprintf("kind %s cannot carry level %s", f.Kind, f.Level))
		}
	}
}

func checkMessages(c *checkContext) {
	for i, f := range c.run.Findings {
		m := f.Message
		if f.MessageText() == "" && (m.Markdown == nil || *m.Markdown == "") && (m.ID == nil || *m.ID == "") {
			c.report(sarif.Pointer(sarif.ResultPointer(c.index, i), "message"), "result message has no text")
		}
	}
}

func checkRuleMetadata(c *checkContext) {
	known := c.run.RuleIndex()
	reported := make(map[string]bool)
	for i, f := range c.run.Findings {
		if f.RuleID == "" || reported[f.RuleID] {
			continue
		}
		if _, ok := known[f.RuleID]; !ok {
			reported[f.RuleID] = true
			c.report(sarif.Pointer(sarif.ResultPointer(c.index, i), "ruleId"),
				fmt.Sprintf("rule %q has no descriptor", f.RuleID))
		}
	}
}
