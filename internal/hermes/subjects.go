package hermes

import "strings"

const (
	SubjectResourceReported = "swg.resource.reported"
	SubjectAssayStats       = "swg.assay.stats"

	StreamName   = "ASSAY_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// StreamSubjects are retained by the ASSAY_EVENTS stream.
var StreamSubjects = []string{"swg.resource.>", "swg.assay.>"}

func SubjectResourceCreated(resourceID string) string {
	return "swg.resource." + resourceID + ".created"
}

func SubjectResourceRated(resourceID string) string {
	return "swg.resource." + resourceID + ".rated"
}

func SubjectResourceDepleted(resourceID string) string {
	return "swg.resource." + resourceID + ".depleted"
}

func SubjectSyncCompleted(galaxy string) string {
	return "swg.assay.sync." + galaxy + ".completed"
}

// Retained reports whether subject is captured by the stream.
func Retained(subject string) bool {
	for _, pattern := range StreamSubjects {
		if SubjectMatches(pattern, subject) {
			return true
		}
	}
	return false
}

// SubjectMatches reports whether subject matches a NATS pattern where "*"
// matches one token and a trailing ">" matches one or more.
func SubjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}

func durableName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	return "assay_" + r.Replace(subject)
}
