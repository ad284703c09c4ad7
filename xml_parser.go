package plist17

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DecodeXML reads an XML property list into the value model. Dates become
// RFC 3339 strings and every real becomes a Float64.
func DecodeXML(r io.Reader) (Value, error) {
	return newXMLPlistParser(r).parseDocument()
}

type xmlPlistParser struct {
	xmlDecoder         *xml.Decoder
	whitespaceReplacer *strings.Replacer
	idrefs             map[string]Value
}

func (p *xmlPlistParser) parseDocument() (pval Value, parseError error) {
	defer func() {
		if r := recover(); r != nil {
			pval = nil
			parseError = recoverError(r, "parsing XML plist")
		}
	}()
	for {
		token, err := p.xmlDecoder.Token()
		if err != nil {
			panic(errors.Wrap(err, "no property list found"))
		}
		if element, ok := token.(xml.StartElement); ok {
			pval = p.parseXMLElement(element)
			if pval == nil {
				panic(errors.New("no elements encountered"))
			}
			return pval, nil
		}
	}
}

func (p *xmlPlistParser) storeOrFindXMLElementValue(element xml.StartElement, value Value) Value {
	for _, attr := range element.Attr {
		switch attr.Name.Local {
		case "ID":
			p.idrefs[attr.Value] = value
		case "IDREF":
			if ref, ok := p.idrefs[attr.Value]; ok {
				return ref
			}
			panic(errors.Newf("unknown IDREF %q", attr.Value))
		}
	}
	return value
}

func (p *xmlPlistParser) charData(element xml.StartElement) string {
	var charData xml.CharData
	if err := p.xmlDecoder.DecodeElement(&charData, &element); err != nil {
		panic(err)
	}
	return string(charData)
}

func (p *xmlPlistParser) parseXMLElement(element xml.StartElement) Value {
	switch element.Name.Local {
	case xmlPlistTag:
		for {
			token, err := p.xmlDecoder.Token()
			if err != nil {
				panic(err)
			}
			if el, ok := token.(xml.EndElement); ok && el.Name.Local == xmlPlistTag {
				return nil
			}
			if el, ok := token.(xml.StartElement); ok {
				return p.parseXMLElement(el)
			}
		}
	case xmlStringTag:
		return p.storeOrFindXMLElementValue(element, String(p.charData(element)))
	case xmlIntegerTag:
		s := strings.TrimSpace(p.charData(element))
		if len(s) == 0 {
			return p.storeOrFindXMLElementValue(element, Int(0))
		}
		return p.storeOrFindXMLElementValue(element, Int(parseXMLInteger(s)))
	case xmlRealTag:
		s := strings.TrimSpace(p.charData(element))
		if len(s) == 0 {
			return p.storeOrFindXMLElementValue(element, Float64(0))
		}
		return p.storeOrFindXMLElementValue(element, Float64(parseXMLFloat(s)))
	case xmlTrueTag, xmlFalseTag:
		if err := p.xmlDecoder.Skip(); err != nil {
			panic(err)
		}
		return p.storeOrFindXMLElementValue(element, Bool(element.Name.Local == xmlTrueTag))
	case xmlDateTag:
		s := strings.TrimSpace(p.charData(element))
		t, err := time.ParseInLocation(time.RFC3339, s, time.UTC)
		if err != nil {
			panic(err)
		}
		return p.storeOrFindXMLElementValue(element, String(t.UTC().Format(time.RFC3339)))
	case xmlDataTag:
		str := p.whitespaceReplacer.Replace(p.charData(element))
		data, err := base64.StdEncoding.DecodeString(str)
		if err != nil {
			panic(err)
		}
		return p.storeOrFindXMLElementValue(element, Data(data))
	case xmlDictTag:
		dict := NewDictionary()
		var key *string
		for {
			token, err := p.xmlDecoder.Token()
			if err != nil {
				panic(err)
			}
			if el, ok := token.(xml.EndElement); ok && el.Name.Local == xmlDictTag {
				if key != nil {
					panic(errors.Newf("missing value for key %q in dictionary", *key))
				}
				break
			}
			el, ok := token.(xml.StartElement)
			if !ok {
				continue
			}
			if el.Name.Local == xmlKeyTag {
				k := p.charData(el)
				key = &k
				continue
			}
			if key == nil {
				panic(errors.New("missing key in dictionary"))
			}
			dict.Set(String(*key), p.parseXMLElement(el))
			key = nil
		}
		return p.storeOrFindXMLElementValue(element, dict)
	case xmlArrayTag:
		arr := NewArray()
		for {
			token, err := p.xmlDecoder.Token()
			if err != nil {
				panic(err)
			}
			if el, ok := token.(xml.EndElement); ok && el.Name.Local == xmlArrayTag {
				break
			}
			if el, ok := token.(xml.StartElement); ok {
				arr.Values = append(arr.Values, p.parseXMLElement(el))
			}
		}
		return p.storeOrFindXMLElementValue(element, arr)
	}
	panic(errors.Newf("encountered unknown element %s", element.Name.Local))
}

// parseXMLInteger accepts decimal and 0x-prefixed hex, signed or not.
func parseXMLInteger(s string) int64 {
	negative := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			panic(errors.Wrapf(ErrIntegerOutOfRange, "<integer>%s</integer>", s))
		}
		panic(err)
	}
	switch {
	case !negative && u > math.MaxInt64:
		panic(errors.Wrapf(ErrIntegerOutOfRange, "<integer>%s</integer>", s))
	case negative && u > 1<<63:
		panic(errors.Wrapf(ErrIntegerOutOfRange, "<integer>%s</integer>", s))
	case negative:
		return -int64(u)
	}
	return int64(u)
}

func parseXMLFloat(s string) float64 {
	switch strings.ToLower(s) {
	case "inf", "+inf", "infinity":
		return math.Inf(1)
	case "-inf", "-infinity":
		return math.Inf(-1)
	case "nan":
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(err)
	}
	return f
}

func newXMLPlistParser(r io.Reader) *xmlPlistParser {
	return &xmlPlistParser{
		xmlDecoder:         xml.NewDecoder(r),
		whitespaceReplacer: strings.NewReplacer("\t", "", "\n", "", " ", "", "\r", ""),
		idrefs:             make(map[string]Value),
	}
}
