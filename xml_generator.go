package plist17

import (
	"bufio"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

const (
	xmlHEADER     string = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	xmlDOCTYPE           = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n"
	xmlArrayTag          = "array"
	xmlDataTag           = "data"
	xmlDateTag           = "date"
	xmlDictTag           = "dict"
	xmlFalseTag          = "false"
	xmlIntegerTag        = "integer"
	xmlKeyTag            = "key"
	xmlPlistTag          = "plist"
	xmlRealTag           = "real"
	xmlStringTag         = "string"
	xmlTrueTag           = "true"
)

// EncodeXML writes v as an XML property list. XML plists have no null and
// only string keys, so both are rejected with ErrUnsupportedValue.
func EncodeXML(w io.Writer, v Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverError(r, "generating XML plist")
		}
	}()
	p := newXMLPlistGenerator(w)
	p.Indent("\t")
	p.generateDocument(v)
	return p.Flush()
}

func formatXMLFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

type xmlPlistGenerator struct {
	*bufio.Writer

	indent string
	depth  int
}

func (p *xmlPlistGenerator) Indent(i string) {
	p.indent = i
}

func (p *xmlPlistGenerator) writeIndent() {
	for i := 0; i < p.depth; i++ {
		p.WriteString(p.indent)
	}
}

func (p *xmlPlistGenerator) generateDocument(root Value) {
	p.WriteString(xmlHEADER)
	p.WriteString(xmlDOCTYPE)

	p.WriteString(fmt.Sprintf("<%s version=\"1.0\">\n", xmlPlistTag))
	p.writePlistValue(root)
	p.WriteString(fmt.Sprintf("</%s>\n", xmlPlistTag))
}

func (p *xmlPlistGenerator) element(key string, value string) {
	p.writeIndent()
	if len(value) == 0 {
		p.WriteString(fmt.Sprintf("<%s/>\n", key))
		return
	}
	p.WriteString(fmt.Sprintf("<%s>", key))
	if err := xml.EscapeText(p.Writer, []byte(value)); err != nil {
		panic(err)
	}
	p.WriteString(fmt.Sprintf("</%s>\n", key))
}

func (p *xmlPlistGenerator) writeDictionary(dict *Dictionary) {
	p.writeIndent()
	if len(dict.Keys) == 0 {
		p.WriteString(fmt.Sprintf("<%s/>\n", xmlDictTag))
		return
	}
	p.WriteString(fmt.Sprintf("<%s>\n", xmlDictTag))
	p.depth++
	for i, k := range dict.Keys {
		key, ok := k.(String)
		if !ok {
			panic(errors.Wrapf(ErrUnsupportedValue, "dictionary key %s", Sprint(k)))
		}
		p.element(xmlKeyTag, string(key))
		p.writePlistValue(dict.Values[i])
	}
	p.depth--
	p.writeIndent()
	p.WriteString(fmt.Sprintf("</%s>\n", xmlDictTag))
}

func (p *xmlPlistGenerator) writeArray(a *Array) {
	p.writeIndent()
	if len(a.Values) == 0 {
		p.WriteString(fmt.Sprintf("<%s/>\n", xmlArrayTag))
		return
	}
	p.WriteString(fmt.Sprintf("<%s>\n", xmlArrayTag))
	p.depth++
	for _, v := range a.Values {
		p.writePlistValue(v)
	}
	p.depth--
	p.writeIndent()
	p.WriteString(fmt.Sprintf("</%s>\n", xmlArrayTag))
}

func (p *xmlPlistGenerator) writeData(data Data) {
	dataBase64 := base64.StdEncoding.EncodeToString([]byte(data))
	if len(dataBase64) <= 68 {
		p.element(xmlDataTag, dataBase64)
		return
	}
	p.writeIndent()
	p.WriteString(fmt.Sprintf("<%s>\n", xmlDataTag))
	for i := 0; i < len(dataBase64); i += 68 {
		p.writeIndent()
		endoff := i + 68
		if endoff > len(dataBase64) {
			endoff = len(dataBase64)
		}
		p.WriteString(dataBase64[i:endoff])
		p.WriteString("\n")
	}
	p.writeIndent()
	p.WriteString(fmt.Sprintf("</%s>\n", xmlDataTag))
}

func (p *xmlPlistGenerator) writePlistValue(pval Value) {
	switch pval := pval.(type) {
	case String:
		p.element(xmlStringTag, string(pval))
	case Int:
		p.element(xmlIntegerTag, strconv.FormatInt(int64(pval), 10))
	case Float32:
		p.element(xmlRealTag, formatXMLFloat(float64(pval), 32))
	case Float64:
		p.element(xmlRealTag, formatXMLFloat(float64(pval), 64))
	case Bool:
		if bool(pval) {
			p.element(xmlTrueTag, "")
		} else {
			p.element(xmlFalseTag, "")
		}
	case Data:
		p.writeData(pval)
	case *Dictionary:
		p.writeDictionary(pval)
	case *Array:
		p.writeArray(pval)
	case Null:
		panic(errors.Wrap(ErrUnsupportedValue, "XML plists cannot hold null"))
	default:
		panic(errors.Wrapf(ErrUnsupportedValue, "%T", pval))
	}
}

func newXMLPlistGenerator(w io.Writer) *xmlPlistGenerator {
	return &xmlPlistGenerator{Writer: bufio.NewWriter(w)}
}
