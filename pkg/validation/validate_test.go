package validation

import "testing"

func TestValidEmail(t *testing.T) {
	good := []string{"a@b.co", "first.last@conf.org"}
	bad := []string{"", "no-at.example.com", "two@@example.com", "spaces in@example.com"}
	for _, s := range good {
		if !ValidEmail(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	for _, s := range bad {
		if ValidEmail(s) {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestValidURL(t *testing.T) {
	if !ValidURL("https://example.com/path") {
		t.Fatalf("absolute URL rejected")
	}
	if ValidURL("not a url") || ValidURL("/relative/only") {
		t.Fatalf("non-absolute values accepted")
	}
}

func TestValidLinkedInURL(t *testing.T) {
	if !ValidLinkedInURL("") {
		t.Fatalf("optional field: empty is fine")
	}
	if !ValidLinkedInURL("https://www.linkedin.com/in/someone/") {
		t.Fatalf("profile URL rejected")
	}
	if ValidLinkedInURL("https://example.com/in/someone") {
		t.Fatalf("non-linkedin URL accepted")
	}
}

func TestRequired(t *testing.T) {
	if Required("   ") || Required("") {
		t.Fatalf("whitespace is not a value")
	}
	if !Required("x") {
		t.Fatalf("value rejected")
	}
	if RequiredSlice([]string{}) {
		t.Fatalf("empty selection accepted")
	}
	if !RequiredSlice([]string{"a"}) {
		t.Fatalf("selection rejected")
	}
}

func TestSelectionCount(t *testing.T) {
	vs := []string{"a", "b", "c"}
	if !SelectionCount(vs, 3, 8) {
		t.Fatalf("3 picks should satisfy 3-8")
	}
	if SelectionCount(vs[:2], 3, 8) || SelectionCount(make([]string, 9), 3, 8) {
		t.Fatalf("out-of-range counts accepted")
	}
}

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{}
	if !errs.Ok() {
		t.Fatalf("fresh set should be ok")
	}
	errs.Add("email", "invalid")
	errs.Add("email", "second problem is ignored")
	if errs["email"] != "invalid" {
		t.Fatalf("first problem should win, got %q", errs["email"])
	}
	if errs.Ok() {
		t.Fatalf("set with problems reports ok")
	}
}
