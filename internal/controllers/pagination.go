package controllers

import (
	"math"
	"net/url"
	"strconv"

	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// Page is the envelope of every paginated list
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Paginator reads page-number pagination parameters and builds page envelopes
// with absolute next/previous links
type Paginator struct {
	baseURL     string
	defaultSize int
	maxSize     int
}

func NewPaginator(baseURL string, defaultSize, maxSize int) *Paginator {
	return &Paginator{baseURL: baseURL, defaultSize: defaultSize, maxSize: maxSize}
}

// Request parses "page" and "limit" (or "page_size"). A page that is not a
// positive integer, or whose offset does not fit in an int, is answered with 404.
func (p *Paginator) Request(ctx *gin.Context) (services.PageRequest, bool) {
	size := p.defaultSize
	raw := ctx.Query("limit")
	if raw == "" {
		raw = ctx.Query("page_size")
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		size = min(n, p.maxSize)
	}

	page := 1
	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n-1 > math.MaxInt/size {
			respondNotFound(ctx, "Invalid page.")
			return services.PageRequest{}, false
		}
		page = n
	}
	return services.PageRequest{Page: page, Size: size}, true
}

// InRange reports whether req points at an existing page; the first page always exists
func (p *Paginator) InRange(ctx *gin.Context, req services.PageRequest, total int64) bool {
	if req.Page > 1 && int64(req.Offset()) >= total {
		respondNotFound(ctx, "Invalid page.")
		return false
	}
	return true
}

// NewPage wraps results with the total and neighbour links
func NewPage[T any](p *Paginator, ctx *gin.Context, req services.PageRequest, total int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}
	if int64(req.Offset()+req.Size) < total {
		next := p.link(ctx, req.Page+1)
		page.Next = &next
	}
	if req.Page > 1 {
		previous := p.link(ctx, req.Page-1)
		page.Previous = &previous
	}
	return page
}

// link rebuilds the request URL for another page; page 1 drops the parameter
func (p *Paginator) link(ctx *gin.Context, page int) string {
	query := url.Values{}
	for key, values := range ctx.Request.URL.Query() {
		query[key] = values
	}
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := p.baseURL + ctx.Request.URL.Path
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
