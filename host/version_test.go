package host

import "testing"

type busyQueries struct {
	Queries
	reading, opening bool
	openingAsked     bool
}

func (b *busyQueries) IsReadingFile() bool { return b.reading }
func (b *busyQueries) IsOpeningFile() bool {
	b.openingAsked = true
	return b.opening
}

func TestVersionCapabilities(t *testing.T) {
	tests := []struct {
		v           Version
		stringArray bool
		opening     bool
	}{
		{V85, false, false},
		{V2008, false, true},
		{V2009, true, true},
		{V2011, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			if got := tt.v.SupportsStringArrayCallbacks(); got != tt.stringArray {
				t.Errorf("SupportsStringArrayCallbacks() = %v, want %v", got, tt.stringArray)
			}
			if got := tt.v.SupportsOpeningFileQuery(); got != tt.opening {
				t.Errorf("SupportsOpeningFileQuery() = %v, want %v", got, tt.opening)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := ParseVersion("8.5"); err != nil || v != V85 {
		t.Errorf("ParseVersion(8.5) = %v, %v", v, err)
	}
	if v, err := ParseVersion(" 2011 "); err != nil || v != V2011 {
		t.Errorf("ParseVersion(2011) = %v, %v", v, err)
	}
	if _, err := ParseVersion("abc"); err == nil {
		t.Error("expected error for non-numeric version")
	}
	if _, err := ParseVersion("7"); err == nil {
		t.Error("expected error for version before 8.5")
	}
}

func TestFileBusy(t *testing.T) {
	q := &busyQueries{opening: true}
	if FileBusy(q, V85) {
		t.Error("8.5 cannot ask IsOpeningFile")
	}
	if q.openingAsked {
		t.Error("IsOpeningFile must not be asked on 8.5")
	}
	if !FileBusy(q, V2008) {
		t.Error("2008 should report opening file as busy")
	}

	q = &busyQueries{reading: true}
	if !FileBusy(q, V85) {
		t.Error("reading file is busy on every version")
	}
}
