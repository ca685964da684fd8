package template

import "strings"

// A Source is the text of a template and the identifier errors refer to it by.
type Source struct {
	ID   string
	Text string
}

// position converts a byte offset into a 1-based line and column.
func (s Source) position(offset int) (line, col int) {
	if offset > len(s.Text) {
		offset = len(s.Text)
	}

	before := s.Text[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}
