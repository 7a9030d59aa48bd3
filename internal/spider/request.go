package spider

import (
	"sjsage522/alkotekaworker/internal/item"
)

// Stage names the callback a response is routed to
type Stage string

const (
	StageCityLookup Stage = "city_lookup"
	StagePaginate   Stage = "paginate"
	StageDetail     Stage = "detail"
)

// Context is the state a request carries to its callback. It is copied into
// every follow-up request and never shared between pagination chains.
type Context struct {
	Stage        Stage
	CityUUID     string
	CategorySlug string
	Page         int
	PerPage      int
	ProductSlug  string
	ProductURL   string
}

// Request is a pending GET against the catalog API
type Request struct {
	URL     string
	Context Context
}

// Method is always GET for this API
func (r Request) Method() string { return "GET" }

// Response pairs a fetched body with the request that produced it
type Response struct {
	Request Request
	Body    []byte
}

// Context returns the context of the originating request
func (r Response) Context() Context { return r.Request.Context }

// Result is what a callback produces: follow-up requests and finished items
type Result struct {
	Requests []Request
	Items    []item.Product
}
