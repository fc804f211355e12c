package question

import (
	"fmt"
	"strings"

	"financebuddy/core/llm"
	"financebuddy/core/retrieval"
)

// commonKnowledgeMaxWords bounds how short an option text must be before
// it's treated as asserted common knowledge rather than requiring a literal
// match in the retrieved context (spec.md §4.8: "present in the context or
// asserted common-knowledge (flagged)"). The adapter contract has no
// separate flag field, so this length heuristic is the flag: a single
// number, date, or short term (e.g. "True", "5 years") doesn't need to
// appear verbatim in a snippet to be a legitimate distractor or answer.
const commonKnowledgeMaxWords = 2

// validationError explains why a candidate question was dropped, kept
// alongside the dropped question for diagnostics.
type validationError struct {
	reason string
}

func (e *validationError) Error() string { return e.reason }

// validate checks one candidate against spec.md §4.8's per-question rules.
func validate(q llm.Question, context []retrieval.Candidate) error {
	if err := validateDistinctOptions(q.Options); err != nil {
		return err
	}
	if err := validateOptionsGrounded(q.Options, context); err != nil {
		return err
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return &validationError{"explanation is empty"}
	}
	if err := validateSourceReferences(q.SourceReferences, context); err != nil {
		return err
	}
	return nil
}

func validateDistinctOptions(options map[string]string) error {
	seen := make(map[string]struct{}, len(options))
	for _, key := range []string{"A", "B", "C", "D"} {
		text := strings.TrimSpace(strings.ToLower(options[key]))
		if text == "" {
			return &validationError{fmt.Sprintf("option %s is empty", key)}
		}
		if _, dup := seen[text]; dup {
			return &validationError{"options are not distinct"}
		}
		seen[text] = struct{}{}
	}
	return nil
}

func validateOptionsGrounded(options map[string]string, context []retrieval.Candidate) error {
	for key, text := range options {
		if isCommonKnowledge(text) {
			continue
		}
		if !appearsInContext(text, context) {
			return &validationError{fmt.Sprintf("option %s %q is not grounded in context and isn't common knowledge", key, text)}
		}
	}
	return nil
}

func isCommonKnowledge(text string) bool {
	return len(strings.Fields(text)) <= commonKnowledgeMaxWords
}

func appearsInContext(text string, context []retrieval.Candidate) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return false
	}
	for _, c := range context {
		if strings.Contains(strings.ToLower(c.Document.Content), needle) {
			return true
		}
	}
	return false
}

func validateSourceReferences(refs []string, context []retrieval.Candidate) error {
	allowed := make(map[string]struct{}, len(context)*2)
	for _, c := range context {
		allowed[strings.ToLower(c.Document.Source)] = struct{}{}
		allowed[strings.ToLower(c.Document.Title)] = struct{}{}
	}

	for _, ref := range refs {
		if _, ok := allowed[strings.ToLower(ref)]; !ok {
			return &validationError{fmt.Sprintf("sourceReference %q is not among retrieved documents", ref)}
		}
	}
	return nil
}
