package classify

import (
	"regexp"
	"strings"
)

// PatternClassifier resolves the obvious cases directly — greetings, "who
// are you", single-word policy nouns — without invoking an LLM at all.
type PatternClassifier struct {
	greetings    *regexp.Regexp
	identityAsks *regexp.Regexp
	metaAsks     *regexp.Regexp
	policyTerms  *regexp.Regexp
}

// NewPatternClassifier builds the compiled rule set.
func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{
		greetings:    regexp.MustCompile(`(?i)^\s*(hi|hello|hey|bonjour|salut|hallo|hola|ciao|good (morning|afternoon|evening)|thanks|thank you|merci|danke)\b[!.\s]*$`),
		identityAsks: regexp.MustCompile(`(?i)\b(who are you|what are you|are you (a|an) (bot|ai|human)|your name)\b`),
		metaAsks:     regexp.MustCompile(`(?i)\b(what can you (do|help with)|how do you work|what (documents|sources|knowledge) do you have|what is (in|inside) your (corpus|knowledge base))\b`),
		policyTerms:  regexp.MustCompile(`(?i)^\s*(cbam|ets|taxonomy|fit for 55|green deal|emissions trading|carbon border)\s*\??\s*$`),
	}
}

// classifyRule returns a class and true if the query unambiguously matches
// one of the cheap rules, or ("", false) if an LLM (or the policy default)
// should decide instead.
func (p *PatternClassifier) classifyRule(query string) (QueryClass, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", false
	}

	switch {
	case p.greetings.MatchString(q):
		return ClassSmallTalk, true
	case p.identityAsks.MatchString(q):
		return ClassIdentity, true
	case p.metaAsks.MatchString(q):
		return ClassMeta, true
	case p.policyTerms.MatchString(q):
		return ClassPolicy, true
	default:
		return "", false
	}
}
