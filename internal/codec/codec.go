// Package codec provides the JSON encoder/decoder strategies used for API
// responses and sink payloads.
package codec

import (
	stdjson "encoding/json"
	"fmt"

	jsonv2 "github.com/go-json-experiment/json"

	"sjsage522/alkotekaworker/logger"
)

const (
	NameFast = "fast"
	NameStd  = "std"
)

// Codec encodes and decodes JSON documents
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// New returns the codec registered under name
func New(name string) (Codec, error) {
	switch name {
	case NameFast, "":
		return NewFast(), nil
	case NameStd:
		return Std{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// Std is encoding/json
type Std struct{}

func (Std) Name() string { return NameStd }

func (Std) Marshal(v any) ([]byte, error) { return stdjson.Marshal(v) }

func (Std) Unmarshal(data []byte, v any) error { return stdjson.Unmarshal(data, v) }

// Fast uses github.com/go-json-experiment/json and retries with Std whenever
// the fast path rejects a value or document.
type Fast struct {
	fallback Std
	log      *logger.Logger
}

// NewFast creates the fast codec
func NewFast() *Fast {
	return &Fast{log: logger.ForEngine().WithField("codec", NameFast)}
}

func (f *Fast) Name() string { return NameFast }

func (f *Fast) Marshal(v any) ([]byte, error) {
	data, err := jsonv2.Marshal(v, jsonv2.FormatNilSliceAsNull(true))
	if err == nil {
		return data, nil
	}
	f.log.Debug().Err(err).Msg("fast marshal failed, falling back to encoding/json")
	return f.fallback.Marshal(v)
}

func (f *Fast) Unmarshal(data []byte, v any) error {
	err := jsonv2.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	f.log.Debug().Err(err).Msg("fast unmarshal failed, falling back to encoding/json")
	return f.fallback.Unmarshal(data, v)
}
