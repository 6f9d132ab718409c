package nda

import (
	"testing"
	"time"
)

func TestStageDraftRoundTrip(t *testing.T) {
	stage := NewStage(time.Minute, func() time.Time { return time.Unix(1770000000, 0) })

	token := stage.StageDraft([]byte(`{"projectName":"solar panel"}`))
	if token == "" {
		t.Fatalf("expected a resume token")
	}

	payload, ok := stage.TakeDraft(token)
	if !ok {
		t.Fatalf("expected staged payload to resume")
	}
	if string(payload) != `{"projectName":"solar panel"}` {
		t.Fatalf("unexpected payload %q", payload)
	}

	if _, ok := stage.TakeDraft(token); ok {
		t.Fatalf("token must be single use")
	}
}

func TestStageDraftExpires(t *testing.T) {
	current := time.Unix(1770000000, 0)
	stage := NewStage(time.Minute, func() time.Time { return current })

	token := stage.StageDraft([]byte("payload"))
	current = current.Add(2 * time.Minute)

	if _, ok := stage.TakeDraft(token); ok {
		t.Fatalf("expired entry must not resume")
	}
}

func TestStageUnknownToken(t *testing.T) {
	stage := NewStage(time.Minute, nil)
	if _, ok := stage.TakeDraft("missing"); ok {
		t.Fatalf("unknown token must not resume")
	}
}
