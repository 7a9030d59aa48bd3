package normalizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/alkotekaworker/internal/catalog"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

const productURL = "https://alkoteka.com/product/vino-krasnoe/vino-kagor_36145"

func fixture(t *testing.T) catalog.ProductDetail {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "catalog", "testdata", "product_detail.json"))
	require.NoError(t, err)
	var resp catalog.ProductDetailResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp.Results
}

func ptr[T any](v T) *T { return &v }

func TestNormalize(t *testing.T) {
	p, err := Normalize(fixture(t), productURL)
	require.NoError(t, err)

	assert.NotZero(t, p.Timestamp)
	assert.Equal(t, "7f2fbd1e-5f0d-11ee-80e3-00155d03900b", p.RPC)
	assert.Equal(t, productURL, p.URL)
	assert.Equal(t, "Вино Кагор, 0.75 Л, Красное", p.Title)
	assert.Equal(t, []string{"Цена за 1 шт. при покупке 2"}, p.MarketingTags)
	assert.Equal(t, "Фанагория", p.Brand)
	assert.Equal(t, []string{"Вино красное", "Вино"}, p.Section)

	assert.Equal(t, 799.0, p.PriceData.Current)
	assert.Equal(t, 999.0, p.PriceData.Original)
	assert.Equal(t, "Скидка 0", p.PriceData.SaleTag)

	assert.True(t, p.Stock.InStock)
	assert.Equal(t, 12, p.Stock.Count)

	assert.Equal(t, "https://web.alkoteka.com/resize/350_500/product/a1/kagor.png", p.Assets.MainImage)
	assert.Equal(t, []string{""}, p.Assets.SetImages)
	assert.Equal(t, []string{""}, p.Assets.View360)
	assert.Equal(t, []string{""}, p.Assets.Video)

	assert.Equal(t, "Крепость 16 %\nОбъем 0.75 л\nФанагория: Фанагория\nБренд: Кагор\nЦвет: Красное", p.Metadata.Description)
	assert.Equal(t, "Cahors", p.Metadata.Subname)
	assert.Equal(t, int64(36145), p.Metadata.VendorCode)
	assert.Equal(t, "RU", p.Metadata.CountryCode)
	assert.Equal(t, "Россия", p.Metadata.CountryName)
	assert.Equal(t, []any{"Десерты"}, p.Metadata.Gastronomics)
	assert.Equal(t, 1, p.Variants)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	d := fixture(t)

	first, err := Normalize(d, productURL)
	require.NoError(t, err)
	second, err := Normalize(d, productURL)
	require.NoError(t, err)

	first.Timestamp, second.Timestamp = 0, 0
	assert.Equal(t, first, second)
}

func TestTitleWithoutFilterLabels(t *testing.T) {
	d := fixture(t)
	d.FilterLabels = nil

	p, err := Normalize(d, productURL)
	require.NoError(t, err)
	assert.Equal(t, "Вино Кагор", p.Title)
}

func TestTitleSkipsBlankFilterLabels(t *testing.T) {
	d := fixture(t)
	d.FilterLabels = []catalog.FilterLabel{{Title: "0.75 Л"}, {Title: ""}, {Title: "Красное"}}

	assert.Equal(t, "Вино Кагор, 0.75 Л, Красное", Title(d))
}

func TestSaleTag(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		prevPrice float64
		want      string
	}{
		{"discount truncates to zero", 80, 100, "Скидка 0"},
		{"no discount", 100, 100, ""},
		{"free item", 0, 100, "Скидка 1"},
		{"price above previous", 150, 100, "Скидка 0"},
		{"large increase", 300, 100, "Скидка -2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SaleTag(tt.price, tt.prevPrice)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SaleTag(10, 0)
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestSaleTagEmptyExactlyWhenPricesEqual(t *testing.T) {
	d := fixture(t)
	d.Price, d.PrevPrice = ptr(100.0), ptr(100.0)

	p, err := Normalize(d, productURL)
	require.NoError(t, err)
	assert.Empty(t, p.PriceData.SaleTag)

	d.Price = ptr(80.0)
	p, err = Normalize(d, productURL)
	require.NoError(t, err)
	assert.Equal(t, "Скидка 0", p.PriceData.SaleTag)
}

func TestZeroQuantityIsOutOfStock(t *testing.T) {
	d := fixture(t)
	d.QuantityTotal = ptr(0)

	p, err := Normalize(d, productURL)
	require.NoError(t, err)
	assert.False(t, p.Stock.InStock)
	assert.Equal(t, 0, p.Stock.Count)
}

func TestBrandFallsBackToBrandBlock(t *testing.T) {
	d := catalog.ProductDetail{
		DescriptionBlocks: []catalog.DescriptionBlock{
			{Code: "proizvoditel", Title: ""},
			{Code: "brend", Title: "Бренд", Values: []catalog.DescriptionValue{{Name: "Абрау-Дюрсо"}}},
		},
	}
	assert.Equal(t, "Абрау-Дюрсо", Brand(d))

	d.DescriptionBlocks = d.DescriptionBlocks[:1]
	assert.Equal(t, "", Brand(d))
}

func TestSectionWithoutParent(t *testing.T) {
	d := catalog.ProductDetail{Category: &catalog.Category{Name: "Пиво"}}
	assert.Equal(t, []string{"Пиво", ""}, Section(d))

	assert.Equal(t, []string{"", ""}, Section(catalog.ProductDetail{}))
}

func TestDescriptionSkipsEmptyBlocks(t *testing.T) {
	d := catalog.ProductDetail{
		DescriptionBlocks: []catalog.DescriptionBlock{
			{Title: "Тип", Unit: ""},
			{Title: "Выдержка", Unit: "лет"},
			{Title: "Сахар", Values: []catalog.DescriptionValue{{Name: "Сухое"}}},
		},
	}
	assert.Equal(t, "Выдержка лет\nСахар: Сухое", Description(d))
	assert.Equal(t, "", Description(catalog.ProductDetail{}))
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	d := fixture(t)
	d.Price = nil
	d.QuantityTotal = nil

	_, err := Normalize(d, productURL)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "price")
	assert.Contains(t, err.Error(), "quantity_total")
	assert.False(t, apperrors.IsFatal(err))

	d = fixture(t)
	d.UUID = uuid.Nil
	_, err = Normalize(d, productURL)
	assert.ErrorContains(t, err, "uuid")
}

func TestNormalizeEmptyTagsAreNotNil(t *testing.T) {
	d := fixture(t)
	d.PriceDetails = nil
	d.Gastronomics = nil

	p, err := Normalize(d, productURL)
	require.NoError(t, err)
	assert.NotNil(t, p.MarketingTags)
	assert.Empty(t, p.MarketingTags)
	assert.NotNil(t, p.Metadata.Gastronomics)
}
