package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// Query parameters other than offset and limit are carried over so the links
// repeat the same search.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	if p.Limit <= 0 {
		return
	}
	base := c.Path()
	params := url.Values{}
	for k, v := range c.Queries() {
		if k != "offset" && k != "limit" {
			params.Set(k, v)
		}
	}

	link := func(offset int, rel string) string {
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(p.Limit))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, base, params.Encode(), rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	last := 0
	if p.Total > 0 {
		last = (p.Total - 1) / p.Limit * p.Limit
	}
	links = append(links, link(last, "last"))

	c.Set("Link", strings.Join(links, ", "))
}
