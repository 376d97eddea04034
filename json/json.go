// Package json is the encoder used for snapshots and HTTP responses. Struct
// values passed by pointer get their `default` tags applied before encoding.
package json

import (
	"io"
	"reflect"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// setDefaults fills `default` tags when v points to a struct. Other values
// pass through untouched.
func setDefaults(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	return defaults.Set(v)
}

type Encoder struct {
	*jsoniter.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{Encoder: json.NewEncoder(w)}
}

// Encode applies defaults, then writes v followed by a newline.
func (e *Encoder) Encode(v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return e.Encoder.Encode(v)
}

type Decoder struct {
	*jsoniter.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{Decoder: json.NewDecoder(r)}
}

// Decode applies defaults, then overlays the decoded value.
func (d *Decoder) Decode(v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return d.Decoder.Decode(v)
}

func Marshal(v any) ([]byte, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, prefix, indent)
}

func MarshalToString(v any) (string, error) {
	if err := setDefaults(v); err != nil {
		return "", err
	}
	return json.MarshalToString(v)
}

func Unmarshal(data []byte, v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
