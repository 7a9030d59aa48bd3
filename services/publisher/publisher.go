package publisher

import (
	"context"

	"sjsage522/alkotekaworker/internal/codec"
	"sjsage522/alkotekaworker/internal/item"
)

// ProductField is the stream entry field holding a base64 product document
const ProductField = "b64_product"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// ProductSink publishes products through a Publisher
type ProductSink struct {
	pub   Publisher
	codec codec.Codec
}

// NewProductSink wraps pub so it can receive products from the worker
func NewProductSink(pub Publisher, c codec.Codec) *ProductSink {
	if c == nil {
		c = codec.Std{}
	}
	return &ProductSink{pub: pub, codec: c}
}

func (s *ProductSink) Name() string { return "redis" }

// Write encodes p and publishes it under ProductField
func (s *ProductSink) Write(_ context.Context, p item.Product) error {
	data, err := s.codec.Marshal(p)
	if err != nil {
		return err
	}
	return s.pub.Publish(ProductField, data)
}

// Flush trims the streams once a crawl has finished
func (s *ProductSink) Flush(context.Context) error {
	return s.pub.TrimStreams()
}

func (s *ProductSink) Close() error {
	return s.pub.Close()
}
