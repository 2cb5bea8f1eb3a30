package opc

import (
	"encoding/xml"
	"io"
	"strings"
	"time"
)

const (
	coreNamespace    = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	dcNamespace      = "http://purl.org/dc/elements/1.1/"
	dcTermsNamespace = "http://purl.org/dc/terms/"
	xsiNamespace     = "http://www.w3.org/2001/XMLSchema-instance"
	coreLangAttr     = "lang"
)

// DefaultCorePropertiesPartName is the conventional location for a
// package's Core Properties part.
const DefaultCorePropertiesPartName = "/docprops/core.xml"

// CorePropertiesContentType is the content type Core Properties parts are
// registered under.
const CorePropertiesContentType = "application/vnd.openxmlformats-package.core-properties+xml"

// w3cdtfLayouts are the date-time formats W3CDTF allows for Created,
// Modified and LastPrinted, tried in order from most to least specific.
var w3cdtfLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Keyword is a single entry of the Keywords property, optionally tagged
// with its language.
type Keyword struct {
	Lang string
	Text string
}

// CoreProperties holds the standard Dublin Core and package-specific
// metadata properties defined in ECMA-376 Part 2 §11, as found in the Core
// Properties part.
type CoreProperties struct {
	Category       string
	ContentStatus  string
	Created        *time.Time
	Creator        string
	Description    string
	Identifier     string
	Keywords       []Keyword
	Language       string
	LastModifiedBy string
	LastPrinted    *time.Time
	Modified       *time.Time
	Revision       string
	Subject        string
	Title          string
	Version        string
}

func parseW3CDTF(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range w3cdtfLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, newError(KindMalformedXML, s)
}

func formatW3CDTF(t *time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DecodeCoreProperties parses a Core Properties part by pulling tokens one
// element at a time and dispatching on the element's namespace and local
// name, rather than unmarshaling into a single struct - the dc:, dcterms:
// and cp: namespaces mix at the same nesting level and several elements
// (created, lastPrinted, modified) share a local name with their
// xsi:type attribute, which a tag-driven struct cannot express cleanly.
func DecodeCoreProperties(r io.Reader) (*CoreProperties, error) {
	dec := xml.NewDecoder(r)
	cp := &CoreProperties{}
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return cp, nil
			}
			return nil, wrapError(KindMalformedXML, "", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Space {
		case dcNamespace:
			var text string
			if err := dec.DecodeElement(&text, &se); err != nil {
				return nil, wrapError(KindMalformedXML, se.Name.Local, err)
			}
			switch se.Name.Local {
			case "creator":
				cp.Creator = text
			case "description":
				cp.Description = text
			case "identifier":
				cp.Identifier = text
			case "language":
				cp.Language = text
			case "subject":
				cp.Subject = text
			case "title":
				cp.Title = text
			}
		case dcTermsNamespace:
			switch se.Name.Local {
			case "created", "modified":
				var text string
				if err := dec.DecodeElement(&text, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
				t, err := parseW3CDTF(text)
				if err != nil {
					return nil, err
				}
				if se.Name.Local == "created" {
					cp.Created = t
				} else {
					cp.Modified = t
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			}
		case coreNamespace:
			switch se.Name.Local {
			case "coreProperties":
				// The root element: keep pulling tokens so its children are dispatched.
			case "category":
				if err := dec.DecodeElement(&cp.Category, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			case "contentStatus":
				if err := dec.DecodeElement(&cp.ContentStatus, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			case "keywords":
				kw, err := decodeKeywords(dec, &se)
				if err != nil {
					return nil, err
				}
				cp.Keywords = kw
			case "lastModifiedBy":
				if err := dec.DecodeElement(&cp.LastModifiedBy, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			case "lastPrinted":
				var text string
				if err := dec.DecodeElement(&text, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
				t, err := parseW3CDTF(text)
				if err != nil {
					return nil, err
				}
				cp.LastPrinted = t
			case "revision":
				if err := dec.DecodeElement(&cp.Revision, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			case "version":
				if err := dec.DecodeElement(&cp.Version, &se); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, wrapError(KindMalformedXML, se.Name.Local, err)
				}
			}
		default:
			if err := dec.Skip(); err != nil {
				return nil, wrapError(KindMalformedXML, se.Name.Local, err)
			}
		}
	}
}

// decodeKeywords reads a cp:keywords element, which may either contain bare
// text (a single untagged keyword) or a sequence of cp:value children, each
// optionally carrying an xml:lang attribute.
func decodeKeywords(dec *xml.Decoder, start *xml.StartElement) ([]Keyword, error) {
	var keywords []Keyword
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrapError(KindMalformedXML, "keywords", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "value" {
				if err := dec.Skip(); err != nil {
					return nil, wrapError(KindMalformedXML, "value", err)
				}
				continue
			}
			var lang string
			for _, attr := range t.Attr {
				if attr.Name.Local == coreLangAttr {
					lang = attr.Value
				}
			}
			var text string
			if err := dec.DecodeElement(&text, &t); err != nil {
				return nil, wrapError(KindMalformedXML, "value", err)
			}
			keywords = append(keywords, Keyword{Lang: lang, Text: text})
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				keywords = append(keywords, Keyword{Text: text})
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return keywords, nil
			}
		}
	}
}

// EncodeCoreProperties writes cp as a Core Properties part, emitting each
// property through manual EncodeToken calls (rather than struct tags) so
// that dc:, dcterms: and cp:-namespaced siblings and the xsi:type attribute
// on dcterms:created/modified/lastPrinted serialize exactly as ECMA-376
// Part 2 §11 requires.
func EncodeCoreProperties(w io.Writer, cp *CoreProperties) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return wrapError(KindIOFailure, "", err)
	}
	enc := xml.NewEncoder(w)

	root := xml.StartElement{
		Name: xml.Name{Local: "cp:coreProperties"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:cp"}, Value: coreNamespace},
			{Name: xml.Name{Local: "xmlns:dc"}, Value: dcNamespace},
			{Name: xml.Name{Local: "xmlns:dcterms"}, Value: dcTermsNamespace},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNamespace},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return wrapError(KindMalformedXML, "", err)
	}

	writeText := func(local, text string) error {
		if text == "" {
			return nil
		}
		se := xml.StartElement{Name: xml.Name{Local: local}}
		if err := enc.EncodeToken(se); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
		return enc.EncodeToken(se.End())
	}
	writeDateTime := func(local string, t *time.Time) error {
		if t == nil {
			return nil
		}
		se := xml.StartElement{
			Name: xml.Name{Local: local},
			Attr: []xml.Attr{{Name: xml.Name{Local: "xsi:type"}, Value: "dcterms:W3CDTF"}},
		}
		if err := enc.EncodeToken(se); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(formatW3CDTF(t))); err != nil {
			return err
		}
		return enc.EncodeToken(se.End())
	}

	err := writeText("dc:title", cp.Title)
	if err == nil {
		err = writeText("dc:subject", cp.Subject)
	}
	if err == nil {
		err = writeText("dc:creator", cp.Creator)
	}
	if err == nil && len(cp.Keywords) > 0 {
		kwRoot := xml.StartElement{Name: xml.Name{Local: "cp:keywords"}}
		if err = enc.EncodeToken(kwRoot); err == nil {
			if err = encodeKeywords(enc, cp.Keywords); err == nil {
				err = enc.EncodeToken(kwRoot.End())
			}
		}
	}
	if err == nil {
		err = writeText("dc:description", cp.Description)
	}
	if err == nil {
		err = writeText("cp:lastModifiedBy", cp.LastModifiedBy)
	}
	if err == nil {
		err = writeText("cp:revision", cp.Revision)
	}
	if err == nil {
		err = writeDateTime("dcterms:created", cp.Created)
	}
	if err == nil {
		err = writeDateTime("dcterms:modified", cp.Modified)
	}
	if err == nil {
		err = writeDateTime("cp:lastPrinted", cp.LastPrinted)
	}
	if err == nil {
		err = writeText("cp:category", cp.Category)
	}
	if err == nil {
		err = writeText("cp:contentStatus", cp.ContentStatus)
	}
	if err == nil {
		err = writeText("dc:identifier", cp.Identifier)
	}
	if err == nil {
		err = writeText("dc:language", cp.Language)
	}
	if err == nil {
		err = writeText("cp:version", cp.Version)
	}
	if err != nil {
		return wrapError(KindMalformedXML, "", err)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return wrapError(KindMalformedXML, "", err)
	}
	return enc.Flush()
}

func encodeKeywords(enc *xml.Encoder, keywords []Keyword) error {
	for _, kw := range keywords {
		se := xml.StartElement{Name: xml.Name{Local: "cp:value"}}
		if kw.Lang != "" {
			se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: "xml:lang"}, Value: kw.Lang})
		}
		if err := enc.EncodeToken(se); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(kw.Text)); err != nil {
			return err
		}
		if err := enc.EncodeToken(se.End()); err != nil {
			return err
		}
	}
	return nil
}
