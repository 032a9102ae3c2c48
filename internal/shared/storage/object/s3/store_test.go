package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/note/a.png", want: "owner/note/a.png"},
		{name: "simple prefix", prefix: "root", key: "owner/note/a.png", want: "root/owner/note/a.png"},
		{name: "prefix trailing slash", prefix: "root/", key: "owner/note/a.png", want: "root/owner/note/a.png"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/owner/note/a.png", want: "root/owner/note/a.png"},
		{name: "nested prefix", prefix: "root/sub", key: "owner/note/a.png", want: "root/sub/owner/note/a.png"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
