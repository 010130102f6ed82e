package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"firelater-migrate/internal/common/models"
)

type xmlNode struct {
	name     string
	attrs    map[string]string
	text     string
	children []*xmlNode
}

// parseXML reads a structured-markup export: one record element per child
// of the document root (ServiceNow's <unload> layout). Reference fields
// carrying a display_value collapse to their value plus a <field>_display
// sibling; other nested elements recurse with dot-joined keys.
func parseXML(data []byte, source models.SourceSystem, kind models.EntityKind) (*ParseResult, error) {
	root, err := decodeXMLTree(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML export: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("empty XML document")
	}

	result := &ParseResult{}
	for i, recordNode := range root.children {
		result.TotalRows++
		index := i + 1

		payload := make(map[string]any)
		flattenNode(recordNode, "", 0, payload)
		if len(payload) == 0 {
			result.Errors = append(result.Errors, rowError(index, "", "", fmt.Sprintf("element <%s> has no fields", recordNode.name)))
			continue
		}

		result.Records = append(result.Records, models.ParsedRecord{
			SourceID:   sourceIDFor(payload, index),
			EntityKind: kind,
			Data:       payload,
			Meta:       extractMeta(payload, source),
		})
	}

	return result, nil
}

// decodeXMLTree builds a node tree from the document's root element.
func decodeXMLTree(r io.Reader) (*xmlNode, error) {
	decoder := xml.NewDecoder(r)

	var stack []*xmlNode
	var root *xmlNode

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &xmlNode{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, attr := range t.Attr {
				node.attrs[attr.Name.Local] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	return root, nil
}

// flattenNode writes a record element's fields into payload.
func flattenNode(node *xmlNode, prefix string, depth int, payload map[string]any) {
	for _, child := range node.children {
		key := child.name
		if prefix != "" {
			key = prefix + "." + child.name
		}

		if len(child.children) == 0 {
			payload[key] = strings.TrimSpace(child.text)
			if display, ok := child.attrs["display_value"]; ok {
				payload[key+"_display"] = display
			}
			continue
		}

		// A reference element exported as nested value/display_value pairs.
		if value, display, ok := referencePair(child); ok {
			payload[key] = value
			if display != "" {
				payload[key+"_display"] = display
			}
			continue
		}

		if depth+1 >= maxFlattenDepth {
			continue
		}
		flattenNode(child, key, depth+1, payload)
	}
}

func referencePair(node *xmlNode) (value, display string, ok bool) {
	var hasValue bool
	for _, child := range node.children {
		switch child.name {
		case "value":
			value = strings.TrimSpace(child.text)
			hasValue = true
		case "display_value":
			display = strings.TrimSpace(child.text)
		case "link":
			if value == "" {
				value = strings.TrimSpace(child.text)
				hasValue = true
			}
		default:
			return "", "", false
		}
	}
	return value, display, hasValue
}
