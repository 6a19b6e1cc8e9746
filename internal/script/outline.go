// Package script relates a submitted feature script to the steps parsed
// from its console output.
package script

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
	"github.com/zinc-sig/kaas/internal/output"
)

var tagRegex = regexp.MustCompile(`@(\w+)`)

// Parse parses a feature script
func Parse(script string) (*messages.GherkinDocument, error) {
	id := (&messages.Incrementing{}).NewId
	document, err := gherkin.ParseGherkinDocument(strings.NewReader(script), id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature: %w", err)
	}
	return document, nil
}

// ValidateTags checks that expr is a valid tag expression. Empty is valid.
func ValidateTags(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if _, err := tagexpressions.Parse(expr); err != nil {
		return fmt.Errorf("invalid tag expression %q: %w", expr, err)
	}
	return nil
}

// Outline lists the scenarios of script, one per pickle (so every example
// row of a Scenario Outline counts), and gives each step the status of the
// parsed step it corresponds to.
//
// Parsed steps are consumed in order: a script step matches the next parsed
// step with the same text. Script steps with no match, and every step of a
// scenario excluded by tagExpr, are reported as skipped.
func Outline(script string, steps []output.Step, tagExpr string) ([]output.ScenarioOutline, error) {
	document, err := Parse(script)
	if err != nil {
		return nil, err
	}
	if document.Feature == nil {
		return []output.ScenarioOutline{}, nil
	}

	var filter tagexpressions.Evaluatable
	if strings.TrimSpace(tagExpr) != "" {
		filter, err = tagexpressions.Parse(tagExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid tag expression %q: %w", tagExpr, err)
		}
	}

	nodes := indexNodes(document.Feature)
	pickles := gherkin.Pickles(*document, document.Uri, (&messages.Incrementing{}).NewId)

	cursor := 0
	outline := make([]output.ScenarioOutline, 0, len(pickles))
	for _, pickle := range pickles {
		tags := make([]string, 0, len(pickle.Tags))
		for _, tag := range pickle.Tags {
			tags = append(tags, tag.Name)
		}

		scenario := output.ScenarioOutline{
			Name: pickle.Name,
			Tags: tags,
		}
		if len(pickle.AstNodeIds) > 0 {
			scenario.Line = nodes.lines[pickle.AstNodeIds[0]]
		}

		included := filter == nil || filter.Evaluate(tags)
		for _, ps := range pickle.Steps {
			step := output.OutlineStep{
				Text:   ps.Text,
				Status: output.StatusSkipped,
			}
			if len(ps.AstNodeIds) > 0 {
				id := ps.AstNodeIds[0]
				step.Keyword = nodes.keywords[id]
				step.Line = nodes.lines[id]
			}

			if included {
				if i := findStep(steps, cursor, ps.Text); i >= 0 {
					step.Status = steps[i].Status
					step.Error = steps[i].Error
					cursor = i + 1
				}
			}
			scenario.Steps = append(scenario.Steps, step)
		}

		scenario.Status = scenarioStatus(scenario.Steps)
		outline = append(outline, scenario)
	}

	return outline, nil
}

// FailedLines returns the 1-based script lines to highlight for failed
// steps: for each, the first line containing its text, ignoring case.
func FailedLines(script string, steps []output.Step) []int {
	lines := strings.Split(script, "\n")
	seen := make(map[int]bool)

	for _, step := range steps {
		if step.Status != output.StatusFailed {
			continue
		}
		text := strings.ToLower(strings.TrimSpace(step.Text))
		if text == "" {
			continue
		}
		for i, line := range lines {
			if strings.Contains(strings.ToLower(strings.TrimSpace(line)), text) {
				seen[i+1] = true
				break
			}
		}
	}

	result := make([]int, 0, len(seen))
	for n := range seen {
		result = append(result, n)
	}
	sort.Ints(result)
	return result
}

// Tags returns the distinct tag names in script without the leading "@",
// in order of first appearance.
func Tags(script string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, m := range tagRegex.FindAllStringSubmatch(script, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			tags = append(tags, m[1])
		}
	}
	return tags
}

// ScenarioNames returns the names in outline order
func ScenarioNames(outline []output.ScenarioOutline) []string {
	names := make([]string, 0, len(outline))
	for _, s := range outline {
		names = append(names, s.Name)
	}
	return names
}

func findStep(steps []output.Step, from int, text string) int {
	want := normalize(text)
	for i := from; i < len(steps); i++ {
		if normalize(steps[i].Text) == want {
			return i
		}
	}
	return -1
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func scenarioStatus(steps []output.OutlineStep) string {
	skipped := 0
	for _, s := range steps {
		switch s.Status {
		case output.StatusFailed:
			return output.StatusFailed
		case output.StatusSkipped:
			skipped++
		}
	}
	if skipped == len(steps) {
		return output.StatusSkipped
	}
	return output.StatusPassed
}

// astNodes maps gherkin AST ids to source lines and step keywords
type astNodes struct {
	lines    map[string]int
	keywords map[string]string
}

func indexNodes(feature *messages.Feature) astNodes {
	nodes := astNodes{
		lines:    make(map[string]int),
		keywords: make(map[string]string),
	}

	addSteps := func(steps []*messages.Step) {
		for _, s := range steps {
			nodes.lines[s.Id] = int(s.Location.Line)
			nodes.keywords[s.Id] = strings.TrimSpace(s.Keyword)
		}
	}
	addScenario := func(s *messages.Scenario) {
		nodes.lines[s.Id] = int(s.Location.Line)
		addSteps(s.Steps)
	}

	for _, child := range feature.Children {
		switch {
		case child.Background != nil:
			addSteps(child.Background.Steps)
		case child.Scenario != nil:
			addScenario(child.Scenario)
		case child.Rule != nil:
			for _, rc := range child.Rule.Children {
				if rc.Background != nil {
					addSteps(rc.Background.Steps)
				}
				if rc.Scenario != nil {
					addScenario(rc.Scenario)
				}
			}
		}
	}
	return nodes
}
