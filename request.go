package pathmatcher

import (
	"strings"
)

// splitRequestPath splits a request path into its segments and custom verb. The query string, if any,
// is ignored. A trailing ":verb" is split from the last segment only if verbs contains it or if
// matchUnregistered is true; otherwise it stays part of the segment. The leading slash is dropped,
// as well as all trailing empty segments, so "/a/b//" yields ["a", "b"] and "/" yields no segment.
func splitRequestPath(path string, verbs map[string]struct{}, matchUnregistered bool) (segments []string, verb string) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	lastColon := strings.LastIndexByte(path, colonDelim)
	lastSlash := strings.LastIndexByte(path, slashDelim)
	if lastColon >= 0 && lastColon > lastSlash && lastColon < len(path)-1 {
		candidate := path[lastColon+1:]
		if _, ok := verbs[candidate]; ok || matchUnregistered {
			verb = candidate
			path = path[:lastColon]
		}
	}

	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, verb
	}

	segments = strings.Split(path, "/")
	end := len(segments)
	for end > 0 && segments[end-1] == "" {
		end--
	}
	return segments[:end], verb
}
