package upstream

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// Format selects how a response body is decoded.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatText Format = "text"
)

// Document is the generic decoded payload. Root holds map[string]any / []any
// trees for JSON and XML, or a string for text payloads.
type Document struct {
	Format Format
	Root   any
	Raw    []byte
	// Fallback is set when a JSON body failed to decode and Root carries the raw text instead.
	Fallback bool
}

// Text returns the body as a string regardless of format.
func (d Document) Text() string {
	if s, ok := d.Root.(string); ok {
		return s
	}
	return string(d.Raw)
}

// Parse decodes body according to format.
func Parse(body []byte, format Format) (Document, error) {
	switch format {
	case FormatXML:
		root, err := parseXMLTree(body)
		if err != nil {
			return Document{}, apperrors.Wrap(CodeParse, "decode xml payload", err)
		}
		return Document{Format: FormatXML, Root: root, Raw: body}, nil
	case FormatText:
		return Document{Format: FormatText, Root: string(body), Raw: body}, nil
	default:
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var root any
		if err := dec.Decode(&root); err != nil {
			return Document{Format: FormatText, Root: string(body), Raw: body, Fallback: true}, nil
		}
		return Document{Format: FormatJSON, Root: root, Raw: body}, nil
	}
}

type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

// parseXMLTree converts an XML document into nested maps. Leaf elements become
// trimmed strings, repeated siblings become []any, attributes are keyed "@name".
func parseXMLTree(body []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var (
		stack []*xmlNode
		root  *xmlNode
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{name: t.Name.Local, attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			} else if root == nil {
				root = node
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced xml end element")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("xml document has no root element")
	}
	if len(stack) != 0 {
		return nil, errors.New("xml document truncated")
	}
	return map[string]any{root.name: root.value()}, nil
}

func (n *xmlNode) value() any {
	text := strings.TrimSpace(n.text.String())
	if len(n.children) == 0 && len(n.attrs) == 0 {
		return text
	}
	out := make(map[string]any, len(n.children)+len(n.attrs))
	for _, attr := range n.attrs {
		out["@"+attr.Name.Local] = attr.Value
	}
	for _, child := range n.children {
		v := child.value()
		existing, ok := out[child.name]
		if !ok {
			out[child.name] = v
			continue
		}
		if list, isList := existing.([]any); isList {
			out[child.name] = append(list, v)
		} else {
			out[child.name] = []any{existing, v}
		}
	}
	if text != "" {
		out["#text"] = text
	}
	return out
}
