package discovery

import "testing"

func TestMatchTopic(t *testing.T) {
	cases := []struct {
		glob, topic string
		want        bool
	}{
		{"*", "foo", true},
		{"*", "foo/bar", false},
		{"foo", "foo", true},
		{"foo", "bar", false},
		{"**", "foo/bar/baz", true},
		{"**/baz", "foo/bar/baz", true},
		{"**/baz", "foo/bar/qux", false},
		{"alephzero/*", "alephzero/foo", true},
		{"alephzero/*", "alephzero/sub/foo", false},
		{"alephzero/**", "alephzero/sub/foo", true},
	}
	for _, c := range cases {
		if got := matchTopic(c.glob, c.topic); got != c.want {
			t.Errorf("matchTopic(%q, %q) = %v, want %v", c.glob, c.topic, got, c.want)
		}
	}
}
