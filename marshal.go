package plist17

import (
	"math"
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
)

var valueType = reflect.TypeOf((*Value)(nil)).Elem()

// Marshal encodes a Go value. Structs map to dictionaries keyed by field name
// or their `plist:"name,omitempty"` tag; maps need string keys.
func Marshal(v interface{}) ([]byte, error) {
	pval, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	return Encode(pval)
}

// Unmarshal decodes data into the value pointed to by v.
func Unmarshal(data []byte, v interface{}) error {
	pval, err := Decode(data)
	if err != nil {
		return err
	}
	return UnmarshalValue(pval, v)
}

// ValueOf converts a Go value into the value model.
func ValueOf(v interface{}) (Value, error) {
	if v == nil {
		return Null{}, nil
	}
	return valueOf(reflect.ValueOf(v))
}

func valueOf(val reflect.Value) (Value, error) {
	if val.Type().Implements(valueType) {
		if (val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface) && val.IsNil() {
			return Null{}, nil
		}
		return val.Interface().(Value), nil
	}
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface:
		if val.IsNil() {
			return Null{}, nil
		}
		return valueOf(val.Elem())
	case reflect.Bool:
		return Bool(val.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(val.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := val.Uint()
		if u > math.MaxInt64 {
			return nil, errors.Wrapf(ErrIntegerOutOfRange, "%d", u)
		}
		return Int(u), nil
	case reflect.Float32:
		return Float32(val.Float()), nil
	case reflect.Float64:
		return Float64(val.Float()), nil
	case reflect.String:
		return String(val.String()), nil
	case reflect.Slice, reflect.Array:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			data := make([]byte, val.Len())
			reflect.Copy(reflect.ValueOf(data), val)
			return Data(data), nil
		}
		arr := &Array{Values: make([]Value, 0, val.Len())}
		for i := 0; i < val.Len(); i++ {
			e, err := valueOf(val.Index(i))
			if err != nil {
				return nil, err
			}
			arr.Values = append(arr.Values, e)
		}
		return arr, nil
	case reflect.Map:
		return mapValueOf(val)
	case reflect.Struct:
		return structValueOf(val)
	}
	return nil, errors.Wrapf(ErrUnsupportedValue, "cannot encode %v", val.Type())
}

func mapValueOf(val reflect.Value) (Value, error) {
	if val.Type().Key().Kind() != reflect.String {
		return nil, errors.Wrapf(ErrUnsupportedValue, "map key type %v", val.Type().Key())
	}
	keys := val.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	dict := NewDictionary()
	for _, k := range keys {
		e, err := valueOf(val.MapIndex(k))
		if err != nil {
			return nil, err
		}
		dict.Set(String(k.String()), e)
	}
	return dict, nil
}

func structValueOf(val reflect.Value) (Value, error) {
	dict := NewDictionary()
	for _, finfo := range getTypeInfo(val.Type()).fields {
		fval, ok := finfo.value(val, false)
		if !ok || (finfo.omitEmpty && isEmptyValue(fval)) {
			continue
		}
		e, err := valueOf(fval)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", finfo.name)
		}
		dict.Set(String(finfo.name), e)
	}
	return dict, nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}

// UnmarshalValue stores pval into the value pointed to by v.
func UnmarshalValue(pval Value, v interface{}) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return errors.Newf("plist17: cannot unmarshal into %T", v)
	}
	return unmarshal(pval, val.Elem())
}

func unmarshal(pval Value, val reflect.Value) error {
	if val.Type() == valueType {
		val.Set(reflect.ValueOf(&pval).Elem())
		return nil
	}
	if val.Kind() == reflect.Interface && val.NumMethod() == 0 {
		if iv := Interface(pval); iv != nil {
			val.Set(reflect.ValueOf(iv))
		} else {
			val.Set(reflect.Zero(val.Type()))
		}
		return nil
	}
	if _, ok := pval.(Null); ok {
		val.Set(reflect.Zero(val.Type()))
		return nil
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			val.Set(reflect.New(val.Type().Elem()))
		}
		return unmarshal(pval, val.Elem())
	}

	switch pval := pval.(type) {
	case Bool:
		if val.Kind() != reflect.Bool {
			return errors.Newf("not bool field: %v", val.Type())
		}
		val.SetBool(bool(pval))
	case Int:
		return unmarshalInt(int64(pval), val)
	case Float32:
		return unmarshalFloat(float64(pval), val)
	case Float64:
		return unmarshalFloat(float64(pval), val)
	case String:
		if val.Kind() != reflect.String {
			return errors.Newf("not string field: %v", val.Type())
		}
		val.SetString(string(pval))
	case Data:
		if val.Kind() != reflect.Slice || val.Type().Elem().Kind() != reflect.Uint8 {
			return errors.Newf("not data field: %v", val.Type())
		}
		val.SetBytes(append([]byte(nil), pval...))
	case *Array:
		return unmarshalArray(pval, val)
	case *Dictionary:
		switch val.Kind() {
		case reflect.Map:
			return unmarshalMap(pval, val)
		case reflect.Struct:
			return unmarshalStruct(pval, val)
		}
		return errors.Newf("not map or struct field: %v", val.Type())
	default:
		return errors.Newf("not plist17 type: %T", pval)
	}
	return nil
}

func unmarshalInt(n int64, val reflect.Value) error {
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if val.OverflowInt(n) {
			return errors.Wrapf(ErrIntegerOutOfRange, "%d into %v", n, val.Type())
		}
		val.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 || val.OverflowUint(uint64(n)) {
			return errors.Wrapf(ErrIntegerOutOfRange, "%d into %v", n, val.Type())
		}
		val.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		val.SetFloat(float64(n))
	default:
		return errors.Newf("not int field: %v", val.Type())
	}
	return nil
}

func unmarshalFloat(f float64, val reflect.Value) error {
	if val.Kind() != reflect.Float32 && val.Kind() != reflect.Float64 {
		return errors.Newf("not float field: %v", val.Type())
	}
	val.SetFloat(f)
	return nil
}

func unmarshalArray(arr *Array, val reflect.Value) error {
	switch val.Kind() {
	case reflect.Slice:
		val.Set(reflect.MakeSlice(val.Type(), len(arr.Values), len(arr.Values)))
	case reflect.Array:
		if val.Len() < len(arr.Values) {
			return errors.Newf("array of %d values does not fit %v", len(arr.Values), val.Type())
		}
	default:
		return errors.Newf("not slice field: %v", val.Type())
	}
	for i, v := range arr.Values {
		if err := unmarshal(v, val.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalMap(dict *Dictionary, val reflect.Value) error {
	typ := val.Type()
	if typ.Key().Kind() != reflect.String {
		return errors.Newf("map key type %v is not a string", typ.Key())
	}
	if val.IsNil() {
		val.Set(reflect.MakeMap(typ))
	}
	for i, k := range dict.Keys {
		elem := reflect.New(typ.Elem()).Elem()
		if err := unmarshal(dict.Values[i], elem); err != nil {
			return err
		}
		val.SetMapIndex(reflect.ValueOf(keyString(k)).Convert(typ.Key()), elem)
	}
	return nil
}

func unmarshalStruct(dict *Dictionary, val reflect.Value) error {
	tinfo := getTypeInfo(val.Type())
	for _, finfo := range tinfo.fields {
		dval, ok := dict.Get(String(finfo.name))
		if !ok {
			continue
		}
		fval, _ := finfo.value(val, true)
		if err := unmarshal(dval, fval); err != nil {
			return errors.Wrapf(err, "field %s", finfo.name)
		}
	}
	return nil
}
