package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Page is a fixed-size window over an ordered result.
type Page struct {
	Number int
	Size   int
	Total  int
	Pages  int
	Offset int
}

// Paginate returns the window for page number of size over total items.
// Out-of-range numbers clamp to the first or last page; an empty result is a
// single empty page.
func Paginate(total, number, size int) Page {
	if size < 1 {
		size = 1
	}
	if total < 0 {
		total = 0
	}
	pages := max(1, (total+size-1)/size)
	number = min(max(number, 1), pages)
	return Page{
		Number: number,
		Size:   size,
		Total:  total,
		Pages:  pages,
		Offset: (number - 1) * size,
	}
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.Pages }

// Prev is the previous page number.
func (p Page) Prev() int { return p.Number - 1 }

// Next is the next page number.
func (p Page) Next() int { return p.Number + 1 }

// Window returns the slice of items that page p covers.
func Window[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return nil
	}
	end := min(p.Offset+p.Size, len(items))
	return items[p.Offset:end]
}

// Params are the listing parameters read from a request URL.
type Params struct {
	Search string
	Order  Order
	Page   int

	values url.Values
}

// ParseParams reads q, order and page from values.
func ParseParams(values url.Values) Params {
	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return Params{
		Search: strings.TrimSpace(values.Get("q")),
		Order:  ParseOrder(values.Get("order")),
		Page:   page,
		values: values,
	}
}

// Query builds the Query for v, optionally scoped to a tag.
func (p Params) Query(v Viewer, tagSlug string) Query {
	return Query{
		Viewer:  v,
		Search:  p.Search,
		TagSlug: tagSlug,
		Order:   p.Order,
	}
}

// KeepQuery encodes every parameter except page, for pagination links. A
// non-empty result ends with "&" so a page parameter can be appended.
func (p Params) KeepQuery() string {
	return encodeWithout(p.values, "page")
}

// NoOrderQuery encodes every parameter except page and order, for the order
// toggle, which always returns to the first page.
func (p Params) NoOrderQuery() string {
	return encodeWithout(p.values, "page", "order")
}

func encodeWithout(values url.Values, drop ...string) string {
	kept := url.Values{}
	for k, vs := range values {
		kept[k] = vs
	}
	for _, k := range drop {
		kept.Del(k)
	}
	s := kept.Encode()
	if s == "" {
		return ""
	}
	return s + "&"
}
