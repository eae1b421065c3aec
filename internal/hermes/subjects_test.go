package hermes

import (
	"testing"
)

func TestSubjectsCoveredByStream(t *testing.T) {
	subjects := []string{
		SubjectResourceReported,
		SubjectAssayStats,
		SubjectResourceCreated("abc"),
		SubjectResourceRated("abc"),
		SubjectResourceDepleted("abc"),
		SubjectSyncCompleted("legends"),
	}
	for _, s := range subjects {
		if !Retained(s) {
			t.Errorf("subject %s not retained by stream %s", s, StreamName)
		}
	}
	if Retained("craft.schematic.updated") {
		t.Error("foreign subject should not be retained")
	}
}

func TestResourceSubjects(t *testing.T) {
	if got := SubjectResourceRated("r1"); got != "swg.resource.r1.rated" {
		t.Errorf("unexpected subject %s", got)
	}
	if got := SubjectResourceCreated("r1"); got != "swg.resource.r1.created" {
		t.Errorf("unexpected subject %s", got)
	}
}

func TestSubjectMatches(t *testing.T) {
	tests := []struct {
		pattern, subject string
		want             bool
	}{
		{"swg.resource.>", "swg.resource.reported", true},
		{"swg.resource.>", "swg.resource.r1.rated", true},
		{"swg.resource.>", "swg.resource", false},
		{"swg.*.reported", "swg.resource.reported", true},
		{"swg.*.reported", "swg.resource.r1.reported", false},
		{"swg.assay.stats", "swg.assay.stats", true},
		{"swg.assay.stats", "swg.assay.stats.x", false},
		{"swg.>.x", "swg.a.x", false},
	}
	for _, tt := range tests {
		if got := SubjectMatches(tt.pattern, tt.subject); got != tt.want {
			t.Errorf("SubjectMatches(%q, %q) = %v, want %v", tt.pattern, tt.subject, got, tt.want)
		}
	}
}

func TestDurableName(t *testing.T) {
	if got := durableName(SubjectResourceReported); got != "assay_swg_resource_reported" {
		t.Errorf("unexpected durable %s", got)
	}
	if got := durableName("swg.*.>"); got != "assay_swg_any_all" {
		t.Errorf("unexpected durable %s", got)
	}
}
