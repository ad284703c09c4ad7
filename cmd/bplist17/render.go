package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"

	"github.com/zdypro888/plist17"
)

// render formats a decoded value. Blobs become lowercase hex and non-finite
// reals become the strings NaN, +Inf and -Inf.
func render(pval plist17.Value, format string, typed bool) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(tree(pval, typed), "", "    ")
	case "yaml":
		return yaml.Marshal(tree(pval, typed))
	case "xml":
		buf := &bytes.Buffer{}
		if err := plist17.EncodeXML(buf, pval); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "dump":
		return []byte(plist17.Sprint(pval) + "\n"), nil
	}
	return nil, errors.Newf("unknown format %q", format)
}

// orderedMap keeps dictionary pairs in stream order for both encoders: yaml
// understands MapSlice natively and MarshalJSON covers JSON.
type orderedMap yaml.MapSlice

func (m orderedMap) MarshalYAML() (interface{}, error) {
	return yaml.MapSlice(m), nil
}

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, item := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// wireType names the encoding a value was decoded from.
func wireType(pval plist17.Value) string {
	switch pval.(type) {
	case plist17.Null:
		return "null"
	case plist17.Bool:
		return "bool"
	case plist17.Int:
		return "int"
	case plist17.Float32:
		return "float32"
	case plist17.Float64:
		return "float64"
	case plist17.Data:
		return "data"
	case plist17.String:
		return "string"
	case *plist17.Array:
		return "array"
	case *plist17.Dictionary:
		return "dict"
	}
	return "unknown"
}

func tree(pval plist17.Value, typed bool) interface{} {
	var node interface{}
	switch pval := pval.(type) {
	case plist17.Null:
		node = nil
	case plist17.Bool:
		node = bool(pval)
	case plist17.Int:
		node = int64(pval)
	case plist17.Float32:
		node = finite(float64(pval), float32(pval))
	case plist17.Float64:
		node = finite(float64(pval), float64(pval))
	case plist17.Data:
		node = hex.EncodeToString(pval)
	case plist17.String:
		node = string(pval)
	case *plist17.Array:
		values := make([]interface{}, len(pval.Values))
		for i, e := range pval.Values {
			values[i] = tree(e, typed)
		}
		node = values
	case *plist17.Dictionary:
		m := make(orderedMap, len(pval.Keys))
		for i, k := range pval.Keys {
			m[i] = yaml.MapItem{Key: keyText(k), Value: tree(pval.Values[i], typed)}
		}
		node = m
	}
	if !typed {
		return node
	}
	return orderedMap{
		{Key: "type", Value: wireType(pval)},
		{Key: "value", Value: node},
	}
}

func finite(f float64, v interface{}) interface{} {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return v
}

// keyText renders a dictionary key as an object key.
func keyText(k plist17.Value) string {
	switch k := k.(type) {
	case plist17.String:
		return string(k)
	case plist17.Data:
		return hex.EncodeToString(k)
	case plist17.Null:
		return "null"
	case *plist17.Array, *plist17.Dictionary:
		b, err := json.Marshal(tree(k, false))
		if err != nil {
			return plist17.Sprint(k)
		}
		return string(b)
	}
	return fmt.Sprint(plist17.Interface(k))
}
