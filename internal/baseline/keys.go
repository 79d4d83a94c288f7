package baseline

import (
	"sort"
	"strings"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

const sep = "\x00"

// exactKey identifies a finding by rule, primary location and every fingerprint.
func exactKey(f *sarif.Finding) string {
	parts := []string{f.RuleID, f.PrimaryLocation().Key()}
	parts = append(parts, pairs("f:", f.Fingerprints, nil)...)
	parts = append(parts, pairs("p:", f.PartialFingerprints, nil)...)
	return strings.Join(parts, sep)
}

// selectedKeys returns the partial fingerprint names of f that take part in
// partial matching.
func (c Config) selectedKeys(f *sarif.Finding) []string {
	var keys []string
	if len(c.PartialKeys) == 0 {
		for k := range f.PartialFingerprints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}
	for _, k := range c.PartialKeys {
		if _, ok := f.PartialFingerprints[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// partialKey identifies a finding by rule, file and the selected partial
// fingerprints. Findings without any selected fingerprint take no part.
func (c Config) partialKey(f *sarif.Finding) (string, bool) {
	keys := c.selectedKeys(f)
	if len(keys) == 0 {
		return "", false
	}
	parts := []string{f.RuleID, primaryURI(f)}
	for _, k := range keys {
		parts = append(parts, k+"="+f.PartialFingerprints[k])
	}
	return strings.Join(parts, sep), true
}

// messageKey identifies a finding by rule, file and message when it carries
// no selected partial fingerprint.
func (c Config) messageKey(f *sarif.Finding) (string, bool) {
	if len(c.selectedKeys(f)) > 0 {
		return "", false
	}
	msg := messageText(f)
	if msg == "" {
		return "", false
	}
	return strings.Join([]string{f.RuleID, primaryURI(f), msg}, sep), true
}

func primaryURI(f *sarif.Finding) string {
	if loc := f.PrimaryLocation(); loc != nil {
		return loc.NormalizedURI()
	}
	return ""
}

// messageText flattens every part of a message that a reader could see.
func messageText(f *sarif.Finding) string {
	m := f.Message
	parts := []string{deref(m.Text), deref(m.Markdown), deref(m.ID)}
	parts = append(parts, m.Arguments...)
	if strings.Join(parts, "") == "" {
		return ""
	}
	return strings.Join(parts, sep)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pairs renders m as sorted prefix+key=value strings, skipping names in skip.
func pairs(prefix string, m map[string]string, skip map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if skip[k] {
			continue
		}
		out = append(out, prefix+k+"="+v)
	}
	sort.Strings(out)
	return out
}
