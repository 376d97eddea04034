package host

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a host release, ordered by release year.
type Version int

const (
	V85   Version = 2007 // 8.5 shipped between 8.0 and 2008
	V2008 Version = 2008
	V2009 Version = 2009
	V2010 Version = 2010
	V2011 Version = 2011
)

// SupportsStringArrayCallbacks reports whether plugin load/unload callbacks
// receive the plugin name as a string array.
func (v Version) SupportsStringArrayCallbacks() bool {
	return v >= V2009
}

// SupportsOpeningFileQuery reports whether IsOpeningFile can be asked.
func (v Version) SupportsOpeningFileQuery() bool {
	return v >= V2008
}

func (v Version) String() string {
	if v == V85 {
		return "8.5"
	}
	return strconv.Itoa(int(v))
}

// ParseVersion accepts "8.5" or a release year such as "2011".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "8.5" {
		return V85, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid host version %q: %w", s, err)
	}
	if n < int(V85) {
		return 0, fmt.Errorf("unsupported host version %q", s)
	}
	return Version(n), nil
}

// FileBusy reports whether a scene file is being read or opened, asking only
// what the version supports.
func FileBusy(q Queries, v Version) bool {
	if q.IsReadingFile() {
		return true
	}
	return v.SupportsOpeningFileQuery() && q.IsOpeningFile()
}
