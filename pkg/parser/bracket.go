package parser

// Node is a bracketed span; Parent and Children index into the slice returned
// by ExtractBrackets (Parent is -1 for roots).
type Node struct {
	Type     string
	First    int
	Last     int
	Parent   int
	Children []int
}

// ExtractBrackets recovers nested spans from bracket tags such as "(S(NP*",
// "*" and "*))". An opening bracket's type runs until the next '(', ')' or '*'.
// A close with nothing open is ignored, and spans still open after the last
// token are closed there, so the result is always a well-formed forest in
// opening order.
func ExtractBrackets(tags []string) []Node {
	var nodes []Node
	var stack []int

	for i, tag := range tags {
		for j := 0; j < len(tag); {
			switch tag[j] {
			case '(':
				k := j + 1
				for k < len(tag) && tag[k] != '(' && tag[k] != ')' && tag[k] != '*' {
					k++
				}
				n := Node{Type: tag[j+1 : k], First: i, Last: i, Parent: -1}
				idx := len(nodes)
				if len(stack) > 0 {
					parent := stack[len(stack)-1]
					n.Parent = parent
					nodes[parent].Children = append(nodes[parent].Children, idx)
				}
				nodes = append(nodes, n)
				stack = append(stack, idx)
				j = k
			case ')':
				if len(stack) > 0 {
					nodes[stack[len(stack)-1]].Last = i
					stack = stack[:len(stack)-1]
				}
				j++
			default:
				j++
			}
		}
	}

	for _, idx := range stack {
		nodes[idx].Last = len(tags) - 1
	}
	return nodes
}

// flatten turns bracket nodes into plain segments, ignoring nesting.
func flatten(nodes []Node) []Segment {
	out := make([]Segment, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Segment{Type: n.Type, First: n.First, Last: n.Last})
	}
	return out
}
