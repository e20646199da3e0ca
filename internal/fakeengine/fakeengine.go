// Package fakeengine is a small stand-in for the tagging engine used by
// tests. A test binary turns itself into the engine when started with the mode
// variable set, so tests can point an engine configuration at os.Executable.
//
// The fake speaks the real engine's protocol: one sentence per input line,
// one output line per token (token, start, end, then one column per requested
// layer), and a blank line after each sentence.
package fakeengine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"
)

const envMode = "SENNATAG_FAKE_ENGINE"

// Modes.
const (
	ModeTag     = "tag"     // tag every sentence
	ModeNoisy   = "noisy"   // tag, and write diagnostics to stderr
	ModeCrash   = "crash"   // tag the first sentence, then exit 3
	ModePartial = "partial" // tag the first sentence, then exit 0
	ModeGarbage = "garbage" // emit a malformed line
	ModeHang    = "hang"    // read input, then never answer
)

// RunIfRequested turns the current process into the fake engine and exits when
// the mode variable is set. Call it first thing in TestMain.
func RunIfRequested() {
	mode := os.Getenv(envMode)
	if mode == "" {
		return
	}
	os.Exit(Serve(mode, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Env returns the environment entries that select a mode.
func Env(mode string) []string {
	return []string{envMode + "=" + mode}
}

// Executable returns the path of the running binary.
func Executable() (string, error) {
	return os.Executable()
}

type options struct {
	pos, chk, ner, srl, psg bool
	iob, bracket            bool
	userTokens              bool
}

func parseArgs(args []string) options {
	var o options
	for _, a := range args {
		switch a {
		case "-pos":
			o.pos = true
		case "-chk":
			o.chk = true
		case "-ner":
			o.ner = true
		case "-srl":
			o.srl = true
		case "-psg":
			o.psg = true
		case "-iobtags":
			o.iob = true
		case "-brackettags":
			o.bracket = true
		case "-usrtokens":
			o.userTokens = true
		}
	}
	return o
}

// Serve runs the fake engine and returns its exit code.
func Serve(mode string, args []string, in io.Reader, out, errOut io.Writer) int {
	o := parseArgs(args)
	w := bufio.NewWriter(out)
	defer w.Flush()

	if mode == ModeNoisy {
		fmt.Fprintf(errOut, "fake engine: args %s\n", strings.Join(args, " "))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		switch mode {
		case ModeHang:
			continue
		case ModeGarbage:
			fmt.Fprintln(w, "garbage")
			fmt.Fprintln(w)
			return 0
		case ModeCrash, ModePartial:
			if n == 1 {
				w.Flush()
				if mode == ModeCrash {
					fmt.Fprintln(errOut, "fake engine: crashed")
					return 3
				}
				return 0
			}
		}

		for _, row := range tagSentence(line, o) {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		fmt.Fprintln(w)
		n++
	}

	if mode == ModeHang {
		time.Sleep(time.Minute)
	}
	return 0
}

type token struct {
	word       string
	start, end int
}

func tokenize(line string, userTokens bool) []token {
	var out []token
	i := 0
	for i < len(line) {
		if line[i] == ' ' || (!userTokens && unicode.IsSpace(rune(line[i]))) {
			i++
			continue
		}
		j := i
		for j < len(line) && line[j] != ' ' && (userTokens || !unicode.IsSpace(rune(line[j]))) {
			j++
		}
		end := j
		if !userTokens && end-i > 1 && isPunct(line[end-1:end]) {
			out = append(out, token{word: line[i : end-1], start: i, end: end - 1})
			out = append(out, token{word: line[end-1 : end], start: end - 1, end: end})
		} else {
			out = append(out, token{word: line[i:end], start: i, end: end})
		}
		i = j
	}
	return out
}

var verbs = map[string]bool{
	"won": true, "ran": true, "lost": true, "said": true, "left": true,
	"barked": true, "sat": true, "is": true, "was": true, "met": true,
}

var stopwords = map[string]bool{"The": true, "It": true, "A": true, "He": true, "She": true}

func isPunct(w string) bool {
	return w == "." || w == "," || w == "!" || w == "?" || w == ";"
}

func isName(w string) bool {
	return w != "" && unicode.IsUpper(rune(w[0])) && !stopwords[w]
}

func posOf(w string) string {
	switch {
	case isPunct(w):
		return "."
	case verbs[w]:
		return "VBD"
	case isName(w):
		return "NNP"
	default:
		return "NN"
	}
}

func tagSentence(line string, o options) [][]string {
	tokens := tokenize(line, o.userTokens)
	n := len(tokens)

	rows := make([][]string, n)
	for i, t := range tokens {
		rows[i] = []string{t.word, fmt.Sprint(t.start), fmt.Sprint(t.end)}
	}
	if o.pos {
		for i, t := range tokens {
			rows[i] = append(rows[i], posOf(t.word))
		}
	}
	if o.chk {
		labels := make([]string, n)
		for i, t := range tokens {
			switch posOf(t.word) {
			case "VBD":
				labels[i] = "VP"
			case ".":
			default:
				labels[i] = "NP"
			}
		}
		for i, tag := range encode(runs(labels), n, o) {
			rows[i] = append(rows[i], tag)
		}
	}
	if o.ner {
		labels := make([]string, n)
		for i, t := range tokens {
			if isName(t.word) && !verbs[t.word] {
				labels[i] = "PER"
			}
		}
		for i, tag := range encode(runs(labels), n, o) {
			rows[i] = append(rows[i], tag)
		}
	}
	if o.srl {
		var predicates []int
		for i, t := range tokens {
			if verbs[t.word] {
				predicates = append(predicates, i)
				rows[i] = append(rows[i], t.word)
			} else {
				rows[i] = append(rows[i], "-")
			}
		}
		for _, v := range predicates {
			for i, tag := range encode(roleSpans(tokens, v), n, o) {
				rows[i] = append(rows[i], tag)
			}
		}
	}
	if o.psg {
		for i, t := range tokens {
			label := "NP"
			switch posOf(t.word) {
			case "VBD":
				label = "VP"
			case ".":
				label = "PUNCT"
			}
			tag := "(" + label + "*)"
			if i == 0 {
				tag = "(S1(S" + tag
			}
			if i == n-1 {
				tag += "))"
			}
			rows[i] = append(rows[i], tag)
		}
	}
	return rows
}

type span struct {
	label       string
	first, last int
}

// runs groups consecutive equal non-empty labels.
func runs(labels []string) []span {
	var out []span
	for i := 0; i < len(labels); i++ {
		if labels[i] == "" {
			continue
		}
		j := i
		for j+1 < len(labels) && labels[j+1] == labels[i] {
			j++
		}
		out = append(out, span{label: labels[i], first: i, last: j})
		i = j
	}
	return out
}

// roleSpans marks everything before the verb (up to punctuation) as A0, the
// verb as V, and everything after it (up to punctuation) as A1.
func roleSpans(tokens []token, verb int) []span {
	var out []span
	first := verb
	for first > 0 && !isPunct(tokens[first-1].word) {
		first--
	}
	if first < verb {
		out = append(out, span{label: "A0", first: first, last: verb - 1})
	}
	out = append(out, span{label: "V", first: verb, last: verb})
	last := verb
	for last+1 < len(tokens) && !isPunct(tokens[last+1].word) {
		last++
	}
	if last > verb {
		out = append(out, span{label: "A1", first: verb + 1, last: last})
	}
	return out
}

// encode writes spans in the tag style selected by the flags: brackets when
// only -brackettags is set, IOB with -iobtags, IOBES otherwise.
func encode(spans []span, n int, o options) []string {
	tags := make([]string, n)
	bracket := o.bracket && !o.iob
	for i := range tags {
		if bracket {
			tags[i] = "*"
		} else {
			tags[i] = "O"
		}
	}
	for _, s := range spans {
		switch {
		case bracket:
			tags[s.first] = "(" + s.label + tags[s.first]
			tags[s.last] += ")"
		case o.iob:
			tags[s.first] = "B-" + s.label
			for i := s.first + 1; i <= s.last; i++ {
				tags[i] = "I-" + s.label
			}
		case s.first == s.last:
			tags[s.first] = "S-" + s.label
		default:
			tags[s.first] = "B-" + s.label
			for i := s.first + 1; i < s.last; i++ {
				tags[i] = "I-" + s.label
			}
			tags[s.last] = "E-" + s.label
		}
	}
	return tags
}
