package cronrunner

import (
	"context"
	"testing"
)

func TestAdd_RejectsBadSpec(t *testing.T) {
	r := New(nil, context.Background())
	if _, err := r.Add("bad", "not a spec", func(context.Context) {}); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestAdd_AcceptsSecondsSpec(t *testing.T) {
	r := New(nil, nil)
	id, err := r.Add("workflow", "0 */15 * * * *", func(context.Context) {})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero entry id")
	}
	r.Start()
	r.Stop()
}
