package explanation

import (
	"errors"
	"fmt"
	"strings"

	"financebuddy/core/llm"
	"financebuddy/core/retrieval"
)

// validate checks spec.md §4.9's two rules: length <= maxLength and every
// reference resolvable against the retrieved context.
func validate(result llm.ExplanationResult, maxLength int, context []retrieval.Candidate) error {
	if len(result.Explanation) > maxLength {
		return errors.New("explanation: explanation exceeds maxLength")
	}

	allowed := make(map[string]struct{}, len(context)*2)
	for _, c := range context {
		allowed[strings.ToLower(c.Document.Source)] = struct{}{}
		allowed[strings.ToLower(c.Document.Title)] = struct{}{}
	}

	for _, ref := range result.SourceReferences {
		if _, ok := allowed[strings.ToLower(ref)]; !ok {
			return fmt.Errorf("explanation: sourceReference %q does not resolve", ref)
		}
	}
	return nil
}
