package main

import (
	"bytes"
	"encoding/hex"
	"math"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/jsonc"

	"github.com/zdypro888/plist17"
)

// parseJSON builds a value from JSON text, keeping object keys in document
// order. Comments and trailing commas are tolerated. Numbers without a
// fraction or exponent become Int, others Float64.
func parseJSON(data []byte) (plist17.Value, error) {
	data = jsonc.ToJSON(data)
	raw, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}
	return jsonValue(raw, dataType)
}

func jsonValue(raw []byte, dataType jsonparser.ValueType) (plist17.Value, error) {
	switch dataType {
	case jsonparser.Null:
		return plist17.Null{}, nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		return plist17.Bool(b), err
	case jsonparser.Number:
		if bytes.ContainsAny(raw, ".eE") {
			f, err := jsonparser.ParseFloat(raw)
			return plist17.Float64(f), err
		}
		n, err := jsonparser.ParseInt(raw)
		if errors.Is(err, jsonparser.OverflowIntegerError) {
			return nil, errors.Wrapf(plist17.ErrIntegerOutOfRange, "%s", raw)
		}
		return plist17.Int(n), err
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		return plist17.String(s), err
	case jsonparser.Array:
		arr := plist17.NewArray()
		var elemErr error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
			if elemErr != nil {
				return
			}
			if err != nil {
				elemErr = err
				return
			}
			e, err := jsonValue(value, dataType)
			if err != nil {
				elemErr = err
				return
			}
			arr.Values = append(arr.Values, e)
		})
		if elemErr != nil {
			return nil, elemErr
		}
		return arr, err
	case jsonparser.Object:
		dict := plist17.NewDictionary()
		err := jsonparser.ObjectEach(raw, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			e, err := jsonValue(value, dataType)
			if err != nil {
				return err
			}
			dict.Set(plist17.String(k), e)
			return nil
		})
		return dict, err
	}
	return nil, errors.Newf("unexpected JSON value %q", raw)
}

// untype reverses decode --typed: every node is {"type": ..., "value": ...}.
func untype(pval plist17.Value) (plist17.Value, error) {
	node, ok := pval.(*plist17.Dictionary)
	if !ok {
		return nil, errors.Newf("typed node is %s, want an object", plist17.Sprint(pval))
	}
	kind, _ := node.Get(plist17.String("type"))
	value, ok := node.Get(plist17.String("value"))
	if !ok {
		return nil, errors.New("typed node has no value")
	}

	switch kind {
	case plist17.String("null"):
		return plist17.Null{}, nil
	case plist17.String("bool"):
		if b, ok := value.(plist17.Bool); ok {
			return b, nil
		}
	case plist17.String("int"):
		if n, ok := value.(plist17.Int); ok {
			return n, nil
		}
	case plist17.String("float32"):
		if f, ok := typedReal(value); ok {
			return plist17.Float32(f), nil
		}
	case plist17.String("float64"):
		if f, ok := typedReal(value); ok {
			return plist17.Float64(f), nil
		}
	case plist17.String("string"):
		if s, ok := value.(plist17.String); ok {
			return s, nil
		}
	case plist17.String("data"):
		if s, ok := value.(plist17.String); ok {
			b, err := hex.DecodeString(string(s))
			return plist17.Data(b), err
		}
	case plist17.String("array"):
		if arr, ok := value.(*plist17.Array); ok {
			out := plist17.NewArray()
			for _, e := range arr.Values {
				u, err := untype(e)
				if err != nil {
					return nil, err
				}
				out.Values = append(out.Values, u)
			}
			return out, nil
		}
	case plist17.String("dict"):
		if dict, ok := value.(*plist17.Dictionary); ok {
			out := plist17.NewDictionary()
			for i, k := range dict.Keys {
				u, err := untype(dict.Values[i])
				if err != nil {
					return nil, err
				}
				out.Set(k, u)
			}
			return out, nil
		}
	default:
		return nil, errors.Newf("unknown type tag %s", plist17.Sprint(kind))
	}
	return nil, errors.Newf("typed node %s holds %s", plist17.Sprint(kind), plist17.Sprint(value))
}

// typedReal accepts the numbers and NaN/±Inf strings written by render.
func typedReal(pval plist17.Value) (float64, bool) {
	switch v := pval.(type) {
	case plist17.Int:
		return float64(v), true
	case plist17.Float64:
		return float64(v), true
	case plist17.String:
		switch v {
		case "NaN":
			return math.NaN(), true
		case "+Inf":
			return math.Inf(1), true
		case "-Inf":
			return math.Inf(-1), true
		}
	}
	return 0, false
}
