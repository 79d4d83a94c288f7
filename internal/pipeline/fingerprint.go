package pipeline

import (
	"github.com/scan-io-git/sariftool/internal/sarif"
	"github.com/scan-io-git/sariftool/pkg/issuecorrelation"
)

// SnippetFingerprint is the partial fingerprint holding the hash of the code
// a finding's primary location points at.
const SnippetFingerprint = "snippetHash/v1"

// addSnippetFingerprints sets SnippetFingerprint on every finding of doc whose
// primary location resolves to a readable file below root. Existing values
// are kept. Returns how many findings got a fingerprint.
func addSnippetFingerprints(doc *sarif.Document, root string) int {
	added := 0
	for _, run := range doc.Runs {
		for _, f := range run.Findings {
			if _, ok := f.PartialFingerprints[SnippetFingerprint]; ok {
				continue
			}
			loc := f.PrimaryLocation()
			if loc == nil || loc.Region == nil || loc.Region.StartLine == nil {
				continue
			}
			endLine := 0
			if loc.Region.EndLine != nil {
				endLine = *loc.Region.EndLine
			}
			hash := issuecorrelation.ComputeSnippetHash(root, loc.URI, *loc.Region.StartLine, endLine)
			if hash == "" {
				continue
			}
			if f.PartialFingerprints == nil {
				f.PartialFingerprints = make(map[string]string)
			}
			f.PartialFingerprints[SnippetFingerprint] = hash
			added++
		}
	}
	return added
}
