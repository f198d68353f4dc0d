package gcode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ParseError describes a line whose words could not be read.
type ParseError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Text    string `json:"text"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parser reads commands one line at a time.
type Parser struct {
	br   *bufio.Reader
	line int
	err  error
}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rxComment    = regexp.MustCompile(`\(.*?\)`)
	rxEOLComment = regexp.MustCompile(`;.*$`)
	rxWord       = regexp.MustCompile(`([A-Z])([-+]?\d*\.?\d+)`)
)

// Line returns the 1-based number of the last line read.
func (p *Parser) Line() int { return p.line }

// Next returns the next command in the input, skipping blank and
// comment-only lines. A line that cannot be tokenized yields a *ParseError;
// the following call continues with the next line. io.EOF marks the end.
func (p *Parser) Next() (*Command, error) {
	for {
		if p.err != nil {
			return nil, p.err
		}
		raw, err := p.br.ReadString('\n')
		if err == io.EOF && raw != "" {
			err = nil
			p.err = io.EOF
		}
		if err != nil {
			p.err = err
			return nil, err
		}
		p.line++

		s := cleanLine(raw)
		if s == "" {
			continue
		}

		cmd, err := parseLine(s)
		if err != nil {
			return nil, &ParseError{Line: p.line, Message: err.Error(), Text: strings.TrimRight(raw, "\r\n")}
		}
		if cmd == nil {
			continue
		}
		cmd.Line = p.line
		cmd.Source = strings.TrimSpace(raw)
		return cmd, nil
	}
}

func cleanLine(s string) string {
	s = rxComment.ReplaceAllString(s, "")
	s = rxEOLComment.ReplaceAllString(s, "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// parseLine classifies an already cleaned line. A line without any
// recognizable word returns nil without error.
func parseLine(s string) (*Command, error) {
	matches := rxWord.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	cmd := &Command{
		Params: make(Params),
		Words:  make(Block, 0, len(matches)),
	}
	for _, m := range matches {
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in %q: %w", m[0], err)
		}
		w := Word{W: m[1][0], Arg: val}
		cmd.Words = append(cmd.Words, w)

		if w.IsCommand() {
			cmd.Kind = Kind(m[1])
			cmd.Code = val
			continue
		}
		cmd.Params[w.W] = val
	}

	if cmd.Kind == "" {
		cmd.Kind = KindModal
	}

	return cmd, nil
}
