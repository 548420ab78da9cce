package ir

import "encoding/json"

// document is the on-the-wire shape of one IR node:
// produced externally by the front-end, consumed only at this one boundary.
// The rest of the ir package never touches JSON — it operates on *Node.
type document struct {
	Kind     Kind              `json:"kind"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []document        `json:"children,omitempty"`
}

// DecodeProgram parses a front-end-produced IR document into a fresh
// Program, assigning every node a process-local identity as it goes.
func DecodeProgram(data []byte) (*Program, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return NewProgram(build(&doc)), nil
}

func build(doc *document) *Node {
	n := NewNode(doc.Kind)
	n.Text = doc.Text
	for k, v := range doc.Attrs {
		n.SetAttr(k, v)
	}
	for i := range doc.Children {
		n.AddChild(build(&doc.Children[i]))
	}
	return n
}

// EncodeProgram renders prog back to the same wire shape it was decoded
// from, for a driver that wants to hand the transformed tree to a back-end.
func EncodeProgram(prog *Program) ([]byte, error) {
	return json.MarshalIndent(toDocument(prog.Root), "", "  ")
}

func toDocument(n *Node) *document {
	doc := &document{Kind: n.Kind, Text: n.Text}
	if len(n.Attrs) > 0 {
		doc.Attrs = n.Attrs
	}
	for _, c := range n.Children {
		doc.Children = append(doc.Children, *toDocument(c))
	}
	return doc
}
