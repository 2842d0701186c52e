package assessments

import (
	"path"
	"regexp"
	"strconv"
)

// First-generation artifacts were stored flat as report-{id}.pdf; the id
// embedded in the filename is the only way back to the row.
var legacyNameRx = regexp.MustCompile(`^report-(\d+)\.pdf$`)

// ParseLegacyArtifactID extracts the assessment id from a legacy
// report-{id}.pdf filename, in any directory.
func ParseLegacyArtifactID(p string) (AssessmentID, bool) {
	m := legacyNameRx.FindStringSubmatch(path.Base(p))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return AssessmentID(id), true
}
