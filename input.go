package inkpost

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	maxTitleLen   = 200
	maxTagNameLen = 30
	maxTagSlugLen = 40
)

var reSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PostInput is what an owner submits when creating or editing a post.
type PostInput struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

// Validate checks the input before it reaches the store.
func (in PostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&in.Body, validation.Required),
		validation.Field(&in.Tags, validation.Each(validation.RuneLength(1, maxTagNameLen))),
	)
}

// TagInput creates a tag. An empty Slug is derived from Name.
type TagInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Validate checks the input before it reaches the store.
func (in TagInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, maxTagNameLen)),
		validation.Field(&in.Slug, validation.Length(0, maxTagSlugLen), validation.Match(reSlug)),
	)
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// TagSlug derives the slug for a new tag. Names without any ASCII letters
// or digits get a stable slug derived from a name-based UUID.
func TagSlug(name string) string {
	slug := Slugify(name)
	if len(slug) > maxTagSlugLen {
		slug = strings.TrimRight(slug[:maxTagSlugLen], "-")
	}
	if slug != "" {
		return slug
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("tag:"+strings.TrimSpace(name)))
	return "tag-" + strings.ReplaceAll(id.String(), "-", "")[:8]
}

// uniqueSlug suffixes slug with a short hash of name, staying within the
// slug length limit.
func uniqueSlug(slug, name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("tag:"+strings.TrimSpace(name)))
	suffix := "-" + strings.ReplaceAll(id.String(), "-", "")[:8]
	if len(slug)+len(suffix) > maxTagSlugLen {
		slug = strings.TrimRight(slug[:maxTagSlugLen-len(suffix)], "-")
	}
	return slug + suffix
}

// ParseTagNames splits a comma-separated tag field, trims each name and
// drops empty and case-insensitive duplicate entries, keeping the first
// spelling.
func ParseTagNames(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
