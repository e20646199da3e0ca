package parser

import "strings"

// Segment is a typed run of tokens [First, Last] recovered from tag values.
type Segment struct {
	Type  string
	First int
	Last  int
}

// ExtractIOB recovers spans from IOBES tags, one tag per token.
//
// B- opens a span, I-/E- of the same type continue it, S- is a one-token span.
// O, a continuation of another type, or any unknown tag closes the open span,
// which then ends at the previous token. No lookahead is used.
func ExtractIOB(tags []string) []Segment {
	var out []Segment
	open := -1
	var typ string

	flush := func(last int) {
		if open >= 0 {
			out = append(out, Segment{Type: typ, First: open, Last: last})
			open = -1
		}
	}

	for i, tag := range tags {
		switch {
		case tag == "O":
			flush(i - 1)
		case strings.HasPrefix(tag, "S-"):
			flush(i - 1)
			out = append(out, Segment{Type: tag[2:], First: i, Last: i})
		case strings.HasPrefix(tag, "B-"):
			flush(i - 1)
			open, typ = i, tag[2:]
		case strings.HasPrefix(tag, "I-"), strings.HasPrefix(tag, "E-"):
			if open >= 0 && tag[2:] == typ {
				continue
			}
			flush(i - 1)
		default:
			flush(i - 1)
		}
	}
	flush(len(tags) - 1)
	return out
}
