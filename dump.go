package plist17

import (
	"fmt"
	"strings"
)

// Sprint renders v with the Go kind of every node, for debugging.
func Sprint(v Value) string {
	builder := &strings.Builder{}
	printObject(builder, v, 0)
	return builder.String()
}

func printObject(builder *strings.Builder, v Value, depth int) {
	switch pval := v.(type) {
	case Null:
		builder.WriteString("null")
	case Bool:
		fmt.Fprintf(builder, "bool(%v)", bool(pval))
	case Int:
		fmt.Fprintf(builder, "int64(%d)", int64(pval))
	case Float32:
		fmt.Fprintf(builder, "float32(%v)", float32(pval))
	case Float64:
		fmt.Fprintf(builder, "float64(%v)", float64(pval))
	case Data:
		fmt.Fprintf(builder, "[]byte(%x)", []byte(pval))
	case String:
		fmt.Fprintf(builder, "string(%s)", string(pval))
	case *Array:
		printArray(builder, pval, depth)
	case *Dictionary:
		printDictionary(builder, pval, depth)
	default:
		fmt.Fprintf(builder, "unknown(%v)", pval)
	}
}

func printIndent(builder *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		builder.WriteByte('\t')
	}
}

func printArray(builder *strings.Builder, arr *Array, depth int) {
	builder.WriteString("array{\n")
	for i, v := range arr.Values {
		printIndent(builder, depth+1)
		fmt.Fprintf(builder, "[%d]: ", i)
		printObject(builder, v, depth+1)
		builder.WriteByte('\n')
	}
	printIndent(builder, depth)
	builder.WriteString("}")
}

func printDictionary(builder *strings.Builder, dict *Dictionary, depth int) {
	builder.WriteString("dict{\n")
	for i, k := range dict.Keys {
		printIndent(builder, depth+1)
		builder.WriteByte('[')
		printObject(builder, k, depth+1)
		builder.WriteString("]: ")
		printObject(builder, dict.Values[i], depth+1)
		builder.WriteByte('\n')
	}
	printIndent(builder, depth)
	builder.WriteString("}")
}
