package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fathiraz/sqlgen/expr"
)

// decodeOrdered reads one JSON value from r, preserving the key order of
// every object it encounters by building expr.M chains instead of Go maps.
// encoding/json's default map decoding would otherwise discard the
// condition-tree key order the WHERE compiler's ordering guarantee (spec §5)
// depends on, which matters for multi-key conditions like {"$gte":18,"$lt":65}.
func decodeOrdered(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return decodeValue(dec, tok)
}

func decodeValue(dec *json.Decoder, tok json.Token) (interface{}, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("sqlgen: unexpected JSON delimiter %q", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		return f, err
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (expr.M, error) {
	m := expr.M{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("sqlgen: expected string object key, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(dec, valTok)
		if err != nil {
			return nil, err
		}
		m = append(m, expr.KV{Key: key, Value: val})
	}
	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) ([]interface{}, error) {
	var out []interface{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	// consume closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
