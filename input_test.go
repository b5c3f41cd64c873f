package inkpost

import (
	"reflect"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.24!  ", "go-1-24"},
		{"C++", "c"},
		{"日本", ""},
		{"--a--b--", "a-b"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTagSlug(t *testing.T) {
	if got := TagSlug("Web Dev"); got != "web-dev" {
		t.Errorf("TagSlug = %q, want web-dev", got)
	}
	long := TagSlug(strings.Repeat("ab ", 30))
	if len(long) > maxTagSlugLen || strings.HasSuffix(long, "-") {
		t.Errorf("TagSlug long = %q, want at most %d chars without trailing dash", long, maxTagSlugLen)
	}
	a, b := TagSlug("日本"), TagSlug("日本")
	if a != b || !strings.HasPrefix(a, "tag-") || len(a) != len("tag-")+8 {
		t.Errorf("TagSlug fallback = %q/%q, want stable tag-<8 hex>", a, b)
	}
	if TagSlug("日本") == TagSlug("中国") {
		t.Errorf("fallback slugs should differ for different names")
	}
}

func TestUniqueSlug(t *testing.T) {
	got := uniqueSlug("c", "C++")
	if !strings.HasPrefix(got, "c-") || len(got) != len("c-")+8 {
		t.Errorf("uniqueSlug = %q", got)
	}
	long := uniqueSlug(strings.Repeat("a", maxTagSlugLen), "x")
	if len(long) > maxTagSlugLen {
		t.Errorf("uniqueSlug length = %d, want <= %d", len(long), maxTagSlugLen)
	}
}

func TestParseTagNames(t *testing.T) {
	got := ParseTagNames(" Go, ,web,GO , Web Dev,")
	want := []string{"Go", "web", "Web Dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTagNames = %#v, want %#v", got, want)
	}
	if got := ParseTagNames(""); len(got) != 0 {
		t.Errorf("ParseTagNames(\"\") = %#v, want empty", got)
	}
}

func TestPostInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		in     PostInput
		fields []string
	}{
		{"ok", PostInput{Title: "T", Body: "B", Tags: []string{"go"}}, nil},
		{"missing title", PostInput{Body: "B"}, []string{"title"}},
		{"missing body", PostInput{Title: "T"}, []string{"body"}},
		{"long tag", PostInput{Title: "T", Body: "B", Tags: []string{strings.Repeat("x", 31)}}, []string{"tags"}},
		{"title in runes", PostInput{Title: strings.Repeat("é", 200), Body: "B"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !IsValidation(err) {
				t.Fatalf("Validate() = %v, want validation error", err)
			}
			fe := FieldErrors(err)
			for _, f := range tt.fields {
				if _, ok := fe[f]; !ok {
					t.Errorf("missing error for %q in %v", f, fe)
				}
			}
		})
	}
}
