package taxonomy

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	strategyLine    = regexp.MustCompile(`^(\d+)\.(.*)$`)
	subStrategyLine = regexp.MustCompile(`^(\d+)\.(\d+)\.(.*)$`)
	questionHeader  = regexp.MustCompile(`^##\s*(\d+\.\d+)`)
)

// ParseStrategies builds a taxonomy from the line-oriented strategy file.
//
// "1.Name" starts a strategy, "1.2.Name" a sub-strategy of the current
// strategy, and any other line starting with a letter is a guideline of
// the current sub-strategy. Lines without a parent in scope are dropped,
// as are sub-strategies whose id does not extend the current strategy id.
// A repeated id resumes the existing node so sibling ids stay unique.
// Unreadable input yields an error and no partial taxonomy.
func ParseStrategies(data []byte) (*Taxonomy, error) {
	lines, err := contentLines(data)
	if err != nil {
		return nil, fmt.Errorf("parse strategies: %w", err)
	}
	var strategies []Strategy
	cur, curSub := -1, -1

	for _, line := range lines {
		if m := subStrategyLine.FindStringSubmatch(line); m != nil {
			if cur < 0 || m[1] != strategies[cur].ID {
				curSub = -1
				continue
			}
			id := m[1] + "." + m[2]
			s := &strategies[cur]
			curSub = indexOfSub(s.SubStrategies, id)
			if curSub < 0 {
				s.SubStrategies = append(s.SubStrategies, SubStrategy{ID: id, Name: strings.TrimSpace(m[3])})
				curSub = len(s.SubStrategies) - 1
			}
			continue
		}
		if m := strategyLine.FindStringSubmatch(line); m != nil {
			cur = indexOfStrategy(strategies, m[1])
			if cur < 0 {
				strategies = append(strategies, Strategy{ID: m[1], Name: strings.TrimSpace(m[2])})
				cur = len(strategies) - 1
			}
			curSub = -1
			continue
		}
		if !startsWithLetter(line) || cur < 0 || curSub < 0 {
			continue
		}
		sub := &strategies[cur].SubStrategies[curSub]
		sub.Guidelines = append(sub.Guidelines, Guideline{
			ID:   sub.ID + "." + strconv.Itoa(len(sub.Guidelines)+1),
			Name: line,
		})
	}

	return New(strategies), nil
}

// QuestionBank maps a sub-strategy id to its guiding questions in file order.
type QuestionBank map[string][]string

// For returns the questions for a sub-strategy, or nil.
func (q QuestionBank) For(subStrategyID string) []string {
	if q == nil {
		return nil
	}
	return append([]string(nil), q[subStrategyID]...)
}

// ParseQuestions reads "## <subStrategyId>" headers followed by "- question" lines.
// A repeated header starts the block over.
func ParseQuestions(data []byte) (QuestionBank, error) {
	lines, err := contentLines(data)
	if err != nil {
		return nil, fmt.Errorf("parse guiding questions: %w", err)
	}
	bank := make(QuestionBank)
	current := ""
	for _, line := range lines {
		if m := questionHeader.FindStringSubmatch(line); m != nil {
			current = m[1]
			bank[current] = []string{}
			continue
		}
		if current != "" && strings.HasPrefix(line, "-") {
			bank[current] = append(bank[current], strings.TrimSpace(line[1:]))
		}
	}
	return bank, nil
}

// maxLineSize bounds a single content line.
const maxLineSize = 1024 * 1024

func contentLines(data []byte) ([]string, error) {
	var lines []string
	n := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", n+1, err)
	}
	return lines, nil
}

func startsWithLetter(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsLetter(r)
}

func indexOfStrategy(strategies []Strategy, id string) int {
	for i, s := range strategies {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func indexOfSub(subs []SubStrategy, id string) int {
	for i, s := range subs {
		if s.ID == id {
			return i
		}
	}
	return -1
}
