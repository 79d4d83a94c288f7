// Package baseline compares the findings of a log against a previous log
// and records for each one whether it is new, unchanged, updated or gone.
package baseline

import (
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/scan-io-git/sariftool/internal/sarif"
	"github.com/scan-io-git/sariftool/pkg/issuecorrelation"
)

// Stage names, as reported by the correlator.
const (
	StageExact              = "exact"
	StagePartialFingerprint = "partial-fingerprint"
	StagePartialMessage     = "partial-message"
)

var correlationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/scan-io-git/sariftool/baseline"))

// MatchRuns returns a run holding the findings of current, each with a
// baseline state, followed by the baseline findings that no current finding
// matched, marked Absent. Baseline findings already marked Absent are
// history: they are neither matched nor emitted again. Inputs are not modified.
func MatchRuns(current, baseline *sarif.Run, cfg Config) *sarif.Run {
	out := current.CloneEmpty()
	if baseline == nil {
		baseline = &sarif.Run{}
	}

	known := make([]*sarif.Finding, 0, len(baseline.Findings))
	for _, f := range baseline.Findings {
		if f.BaselineState != sarif.BaselineAbsent {
			known = append(known, f)
		}
	}

	c := issuecorrelation.NewCorrelator(current.Findings, known,
		issuecorrelation.Stage[*sarif.Finding]{Name: StageExact, Key: func(f *sarif.Finding) (string, bool) {
			return exactKey(f), true
		}},
		issuecorrelation.Stage[*sarif.Finding]{Name: StagePartialFingerprint, Key: cfg.partialKey},
		issuecorrelation.Stage[*sarif.Finding]{Name: StagePartialMessage, Key: cfg.messageKey},
	)
	stageOf := make(map[int]string, len(current.Findings))
	for _, m := range c.Matches() {
		stageOf[m.New] = m.Stage
	}

	occurrences := make(map[string]int)
	for i, f := range current.Findings {
		nf := f.Clone()
		ki, matched := c.KnownFor(i)
		switch {
		case !matched:
			nf.BaselineState = sarif.BaselineNew
			if nf.CorrelationGUID == "" {
				nf.CorrelationGUID = nf.GUID
			}
			if nf.CorrelationGUID == "" {
				nf.CorrelationGUID = correlationGUID(current.Tool.Name, nf, occurrences)
			}
		default:
			prior := known[ki]
			nf.BaselineState = sarif.BaselineUnchanged
			if stageOf[i] != StageExact && cfg.changed(nf, prior) {
				nf.BaselineState = sarif.BaselineUpdated
			}
			nf.CorrelationGUID = inheritedGUID(baseline.Tool.Name, prior, occurrences)
		}
		out.Findings = append(out.Findings, nf)
	}

	for _, ki := range c.UnmatchedKnown() {
		gone := known[ki].Clone()
		gone.BaselineState = sarif.BaselineAbsent
		out.Findings = append(out.Findings, gone)
		if rd := baseline.Rule(gone.RuleID); rd != nil {
			out.AddRule(rd.Clone())
		}
	}
	return out
}

// changed reports whether a partially matched pair differs in a compared attribute.
func (cfg Config) changed(cur, prior *sarif.Finding) bool {
	if cfg.Compare.Has(CompareMessage) && messageText(cur) != messageText(prior) {
		return true
	}
	if cfg.Compare.Has(CompareLevel) && cur.Level != prior.Level {
		return true
	}
	if cfg.Compare.Has(CompareKind) && cur.Kind != prior.Kind {
		return true
	}
	if cfg.Compare.Has(CompareFingerprints) {
		skip := make(map[string]bool)
		for _, k := range cfg.selectedKeys(cur) {
			skip[k] = true
		}
		if !slices.Equal(pairs("", cur.Fingerprints, nil), pairs("", prior.Fingerprints, nil)) ||
			!slices.Equal(pairs("", cur.PartialFingerprints, skip), pairs("", prior.PartialFingerprints, skip)) {
			return true
		}
	}
	return false
}

func inheritedGUID(tool string, prior *sarif.Finding, occurrences map[string]int) string {
	if prior.CorrelationGUID != "" {
		return prior.CorrelationGUID
	}
	if prior.GUID != "" {
		return prior.GUID
	}
	return correlationGUID(tool, prior, occurrences)
}

// correlationGUID derives a stable identifier from what the finding is and
// how many identical findings came before it.
func correlationGUID(tool string, f *sarif.Finding, occurrences map[string]int) string {
	key := tool + sep + exactKey(f)
	n := occurrences[key]
	occurrences[key] = n + 1
	return uuid.NewSHA1(correlationNamespace, []byte(key+sep+strconv.Itoa(n))).String()
}

// Match pairs the runs of current and baseline by tool name and occurrence
// and matches each pair. Baseline runs without a counterpart are appended
// with every finding Absent. Both documents must share a wire generation.
func Match(current, baseline *sarif.Document, cfg Config) (*sarif.Document, error) {
	if !current.Version.SameGeneration(baseline.Version) {
		return nil, &sarif.VersionMismatchError{Want: current.Version, Got: baseline.Version}
	}

	out := &sarif.Document{
		Version: current.Version,
		Schema:  current.Schema,
		Extra:   current.Extra.Clone(),
		Runs:    make([]*sarif.Run, 0, len(current.Runs)),
	}

	paired := pairRuns(current.Runs, baseline.Runs)
	used := make(map[int]bool, len(paired))
	for i, run := range current.Runs {
		var prior *sarif.Run
		if bi, ok := paired[i]; ok {
			prior = baseline.Runs[bi]
			used[bi] = true
		}
		out.Runs = append(out.Runs, MatchRuns(run, prior, cfg))
	}
	for bi, run := range baseline.Runs {
		if used[bi] {
			continue
		}
		empty := run.CloneEmpty()
		empty.Findings = nil
		out.Runs = append(out.Runs, MatchRuns(empty, run, cfg))
	}
	return out, nil
}

// pairRuns maps current run indexes to baseline run indexes. The n-th run of
// a tool in current pairs with the n-th run of that tool in baseline.
func pairRuns(current, baseline []*sarif.Run) map[int]int {
	byTool := make(map[string][]int)
	for bi, run := range baseline {
		byTool[run.Tool.Name] = append(byTool[run.Tool.Name], bi)
	}
	out := make(map[int]int)
	for ci, run := range current {
		queue := byTool[run.Tool.Name]
		if len(queue) == 0 {
			continue
		}
		out[ci] = queue[0]
		byTool[run.Tool.Name] = queue[1:]
	}
	return out
}
