package tree

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse parses a YAML document into a Node, preserving mapping key order.
// An empty document parses to an empty mapping.
func Parse(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		// empty or comment-only document
		return NewMapping(), nil
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return NewMapping(), nil
		}
		root = doc.Content[0]
	}
	return fromYAMLNode(root)
}

func fromYAMLNode(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return fromYAMLNode(y.Alias)
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(y.Content); i += 2 {
			var key string
			if err := y.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("mapping key at line %d: %w", y.Content[i].Line, err)
			}
			value, err := fromYAMLNode(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		return m, nil
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			item, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return NewSequence(items...), nil
	case yaml.ScalarNode:
		return fromYAMLScalar(y)
	default:
		return nil, fmt.Errorf("%w: unsupported YAML node kind %d at line %d", ErrInvalidType, y.Kind, y.Line)
	}
}

func fromYAMLScalar(y *yaml.Node) (*Node, error) {
	switch y.Tag {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, err
		}
		return Scalar(b), nil
	case "!!int":
		var i int64
		if err := y.Decode(&i); err != nil {
			return nil, err
		}
		return Scalar(i), nil
	case "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, err
		}
		return Scalar(f), nil
	default:
		// anything else (including timestamps and custom tags) stays a string
		return Scalar(y.Value), nil
	}
}

// ToYAML serializes the node as a YAML document with 2-space indentation,
// keeping mapping key order.
func (n *Node) ToYAML() ([]byte, error) {
	y, err := n.toYAMLNode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(y); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) toYAMLNode() (*yaml.Node, error) {
	switch n.Kind {
	case MappingKind:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range n.Pairs {
			value, err := p.Value.toYAMLNode()
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
				value)
		}
		return y, nil
	case SequenceKind:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.Items {
			c, err := item.toYAMLNode()
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, c)
		}
		return y, nil
	default:
		return scalarYAMLNode(n.Value)
	}
}

func scalarYAMLNode(v any) (*yaml.Node, error) {
	y := &yaml.Node{Kind: yaml.ScalarNode}
	switch val := v.(type) {
	case nil:
		y.Tag = "!!null"
		y.Value = "null"
	case string:
		y.Tag = "!!str"
		y.Value = val
	case bool:
		y.Tag = "!!bool"
		y.Value = strconv.FormatBool(val)
	case int64:
		y.Tag = "!!int"
		y.Value = strconv.FormatInt(val, 10)
	case float64:
		y.Tag = "!!float"
		s := strconv.FormatFloat(val, 'g', -1, 64)
		// "2" would resolve as !!int and force an explicit tag in the output
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		y.Value = s
	default:
		return nil, fmt.Errorf("%w: cannot serialize %T as a YAML scalar", ErrInvalidType, v)
	}
	return y, nil
}

// FromFile parses a YAML file into a Node.
func FromFile(filename string) (*Node, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// FromFileInFS parses a YAML file from a file system into a Node.
func FromFileInFS(fsys fs.FS, filename string) (*Node, error) {
	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
