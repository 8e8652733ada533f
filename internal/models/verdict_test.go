package models

import "testing"

func TestRequestPod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "nested", path: "/alice/photos/cat.png", want: "alice"},
		{name: "root_resource", path: "/alice", want: "alice"},
		{name: "no_leading_slash", path: "bob/notes.ttl", want: "bob"},
		{name: "empty", path: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := ModerationRequest{ResourcePath: tt.path}
			if got := req.Pod(); got != tt.want {
				t.Fatalf("pod=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestVerdictMessage(t *testing.T) {
	t.Parallel()

	verdict := Reject(
		Violation{Category: "nudity", Score: 0.85, Reason: "nudity score 0.85 exceeds threshold 0.50"},
		Violation{Category: "gore", Score: 0.7, Reason: "gore score 0.70 exceeds threshold 0.50"},
	)
	want := "nudity score 0.85 exceeds threshold 0.50; gore score 0.70 exceeds threshold 0.50"
	if got := verdict.Message(); got != want {
		t.Fatalf("message=%q", got)
	}

	if got := Allow().Message(); got != "" {
		t.Fatalf("allow message=%q", got)
	}
}
