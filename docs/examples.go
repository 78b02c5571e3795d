package docs

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Example is a pcs command line found in a bash block of a topic.
type Example struct {
	Topic string
	Line  string
	Args  []string // without the leading "pcs"
}

// Examples returns the pcs command lines of every topic.
func Examples() ([]Example, error) {
	topics, err := GetAllTopics()
	if err != nil {
		return nil, err
	}
	var examples []Example
	for _, topic := range topics {
		content, err := GetTopic(topic)
		if err != nil {
			return nil, err
		}
		source := []byte(content)
		root := goldmark.DefaultParser().Parse(text.NewReader(source))
		ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			block, ok := n.(*ast.FencedCodeBlock)
			if !entering || !ok || string(block.Language(source)) != "bash" {
				return ast.WalkContinue, nil
			}
			for i := 0; i < block.Lines().Len(); i++ {
				seg := block.Lines().At(i)
				line := strings.TrimSpace(string(seg.Value(source)))
				args := splitArgs(line)
				if len(args) == 0 || args[0] != "pcs" {
					continue
				}
				examples = append(examples, Example{Topic: topic, Line: line, Args: args[1:]})
			}
			return ast.WalkSkipChildren, nil
		})
	}
	return examples, nil
}

// splitArgs splits line on spaces, single or double quotes group words.
func splitArgs(line string) []string {
	var args []string
	var cur strings.Builder
	var quote rune
	inArg := false
	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote, inArg = r, true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args
}
