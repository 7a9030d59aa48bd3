// Package spider holds the alkoteka traversal: city lookup, category
// pagination and per-product detail fetches.
package spider

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"sjsage522/alkotekaworker/helpers"
	"sjsage522/alkotekaworker/internal/catalog"
	"sjsage522/alkotekaworker/internal/codec"
	"sjsage522/alkotekaworker/internal/item"
	"sjsage522/alkotekaworker/internal/normalizer"
	"sjsage522/alkotekaworker/logger"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

const provider = "spider"

// Config drives one traversal
type Config struct {
	APIBaseURL string
	City       string
	StartURLs  []string
	PerPage    int
	MaxPages   int
}

// Spider issues requests and turns responses into follow-ups and items.
// Callbacks are synchronous and safe to call from several goroutines.
type Spider struct {
	cfg   Config
	codec codec.Codec
	log   *logger.Logger
	city  atomic.Pointer[catalog.City]
}

// New creates a spider. A nil codec means encoding/json.
func New(cfg Config, c codec.Codec) *Spider {
	if c == nil {
		c = codec.Std{}
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &Spider{
		cfg:   cfg,
		codec: c,
		log:   logger.ForSpider(),
	}
}

// City returns the resolved city once OnCityList has matched it
func (s *Spider) City() (catalog.City, bool) {
	c := s.city.Load()
	if c == nil {
		return catalog.City{}, false
	}
	return *c, true
}

// Start returns the single city list request that opens the run
func (s *Spider) Start() []Request {
	return []Request{s.cityRequest(1)}
}

// Handle routes a response to the callback named by its stage
func (s *Spider) Handle(resp Response) (Result, error) {
	switch resp.Context().Stage {
	case StageCityLookup:
		return s.OnCityList(resp)
	case StagePaginate:
		return s.OnCategoryPage(resp)
	case StageDetail:
		return s.OnProductDetail(resp)
	default:
		return Result{}, apperrors.NewParsing(provider, fmt.Sprintf("unknown stage %q", resp.Context().Stage), nil)
	}
}

// OnCityList looks for the configured city and, when found, opens page 1 of
// every start category. A missing city is fatal.
func (s *Spider) OnCityList(resp Response) (Result, error) {
	var list catalog.CityResponse
	if err := s.codec.Unmarshal(resp.Body, &list); err != nil {
		return Result{}, apperrors.NewConfiguration("city list is not valid JSON", err)
	}

	city, ok := list.FindCity(s.cfg.City)
	if !ok {
		if list.Meta.HasMorePages {
			next := resp.Context().Page + 1
			s.log.Debug().Int("page", next).Msg("city not on this page, fetching next city page")
			return Result{Requests: []Request{s.cityRequest(next)}}, nil
		}
		return Result{}, apperrors.NewCityNotFound(provider, s.cfg.City)
	}

	s.city.Store(&city)
	s.log.Info().
		Str("city", city.Name).
		Str("city_uuid", city.UUID.String()).
		Msg("City resolved")

	requests := make([]Request, 0, len(s.cfg.StartURLs))
	for _, startURL := range s.cfg.StartURLs {
		slug, err := helpers.LastPathSegment(startURL)
		if err != nil {
			return Result{}, apperrors.NewConfiguration(fmt.Sprintf("start url %q has no category slug", startURL), err)
		}
		requests = append(requests, s.pageRequest(Context{
			Stage:        StagePaginate,
			CityUUID:     city.UUID.String(),
			CategorySlug: slug,
			Page:         1,
			PerPage:      s.cfg.PerPage,
		}))
	}
	return Result{Requests: requests}, nil
}

// OnCategoryPage fans out one detail request per listed product and asks for
// the next page while the API reports more.
func (s *Spider) OnCategoryPage(resp Response) (Result, error) {
	ctx := resp.Context()

	var page catalog.ProductListResponse
	if err := s.codec.Unmarshal(resp.Body, &page); err != nil {
		return Result{}, apperrors.NewParsing(provider,
			fmt.Sprintf("category %s page %d is not valid JSON", ctx.CategorySlug, ctx.Page), err)
	}

	requests := make([]Request, 0, len(page.Results)+1)
	for _, summary := range page.Results {
		if summary.Slug == "" {
			s.log.Warn().
				Str("category", ctx.CategorySlug).
				Int("page", ctx.Page).
				Str("product_url", summary.ProductURL).
				Msg("Listed product has no slug, skipping")
			continue
		}
		requests = append(requests, s.detailRequest(Context{
			Stage:        StageDetail,
			CityUUID:     ctx.CityUUID,
			CategorySlug: ctx.CategorySlug,
			Page:         ctx.Page,
			PerPage:      ctx.PerPage,
			ProductSlug:  summary.Slug,
			ProductURL:   summary.ProductURL,
		}))
	}

	if page.Meta.HasMorePages {
		if s.cfg.MaxPages > 0 && ctx.Page >= s.cfg.MaxPages {
			s.log.Warn().
				Str("category", ctx.CategorySlug).
				Int("max_pages", s.cfg.MaxPages).
				Msg("Page ceiling reached, stopping pagination")
		} else {
			next := ctx
			next.Page = ctx.Page + 1
			requests = append(requests, s.pageRequest(next))
		}
	}

	return Result{Requests: requests}, nil
}

// OnProductDetail normalizes one detail record into exactly one item
func (s *Spider) OnProductDetail(resp Response) (Result, error) {
	ctx := resp.Context()

	var detail catalog.ProductDetailResponse
	if err := s.codec.Unmarshal(resp.Body, &detail); err != nil {
		return Result{}, apperrors.NewParsing(provider,
			fmt.Sprintf("product %s is not valid JSON", ctx.ProductSlug), err)
	}

	product, err := normalizer.Normalize(detail.Results, ctx.ProductURL)
	if err != nil {
		return Result{}, fmt.Errorf("product %s: %w", ctx.ProductSlug, err)
	}
	return Result{Items: []item.Product{product}}, nil
}

func (s *Spider) cityRequest(page int) Request {
	u := s.cfg.APIBaseURL + "/city"
	if page > 1 {
		u += "?" + url.Values{"page": {strconv.Itoa(page)}}.Encode()
	}
	return Request{URL: u, Context: Context{Stage: StageCityLookup, Page: page}}
}

func (s *Spider) pageRequest(ctx Context) Request {
	q := url.Values{
		"city_uuid":          {ctx.CityUUID},
		"root_category_slug": {ctx.CategorySlug},
		"per_page":           {strconv.Itoa(ctx.PerPage)},
		"page":               {strconv.Itoa(ctx.Page)},
	}
	return Request{URL: s.cfg.APIBaseURL + "/product?" + q.Encode(), Context: ctx}
}

func (s *Spider) detailRequest(ctx Context) Request {
	q := url.Values{"city_uuid": {ctx.CityUUID}}
	return Request{
		URL:     s.cfg.APIBaseURL + "/product/" + url.PathEscape(ctx.ProductSlug) + "?" + q.Encode(),
		Context: ctx,
	}
}
