package plist17

import (
	"reflect"
	"strings"
	"sync"
)

// typeInfo lists the dictionary keys a struct type maps to.
type typeInfo struct {
	fields []fieldInfo
}

// fieldInfo binds one exported struct field to a dictionary key.
type fieldInfo struct {
	idx       []int
	name      string
	omitEmpty bool
}

var tinfoMap sync.Map // map[reflect.Type]*typeInfo

// getTypeInfo returns the cached field layout of typ, computing it on first use.
// Embedded structs contribute their fields, shallower fields win on name clashes.
func getTypeInfo(typ reflect.Type) *typeInfo {
	if ltinfo, ok := tinfoMap.Load(typ); ok {
		return ltinfo.(*typeInfo)
	}
	tinfo := &typeInfo{}
	if typ.Kind() == reflect.Struct {
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if f.Tag.Get("plist") == "-" || (!f.Anonymous && f.PkgPath != "") {
				continue
			}
			if f.Anonymous {
				t := f.Type
				if t.Kind() == reflect.Ptr {
					t = t.Elem()
				}
				if t.Kind() == reflect.Struct {
					for _, finfo := range getTypeInfo(t).fields {
						finfo.idx = append([]int{i}, finfo.idx...)
						tinfo.add(finfo)
					}
					continue
				}
			}
			tinfo.add(structFieldInfo(&f))
		}
	}
	ltinfo, _ := tinfoMap.LoadOrStore(typ, tinfo)
	return ltinfo.(*typeInfo)
}

// structFieldInfo reads the `plist:"name,omitempty"` tag of f.
func structFieldInfo(f *reflect.StructField) fieldInfo {
	finfo := fieldInfo{idx: f.Index, name: f.Name}
	tokens := strings.Split(f.Tag.Get("plist"), ",")
	if tokens[0] != "" {
		finfo.name = tokens[0]
	}
	for _, flag := range tokens[1:] {
		if flag == "omitempty" {
			finfo.omitEmpty = true
		}
	}
	return finfo
}

// add keeps newf unless a shallower field already owns its name. A shallower
// newf evicts the deeper fields it clashes with.
func (tinfo *typeInfo) add(newf fieldInfo) {
	var conflicts []int
	for i := range tinfo.fields {
		if tinfo.fields[i].name == newf.name {
			conflicts = append(conflicts, i)
		}
	}
	for _, i := range conflicts {
		if len(tinfo.fields[i].idx) <= len(newf.idx) {
			return
		}
	}
	for c := len(conflicts) - 1; c >= 0; c-- {
		i := conflicts[c]
		tinfo.fields = append(tinfo.fields[:i], tinfo.fields[i+1:]...)
	}
	tinfo.fields = append(tinfo.fields, newf)
}

// value returns the field of v described by finfo, allocating nil embedded
// struct pointers on the way when alloc is set. ok is false when a nil
// pointer was left in place.
func (finfo *fieldInfo) value(v reflect.Value, alloc bool) (reflect.Value, bool) {
	for i, x := range finfo.idx {
		if i > 0 {
			t := v.Type()
			if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
				if v.IsNil() {
					if !alloc {
						return reflect.Value{}, false
					}
					v.Set(reflect.New(t.Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, true
}
