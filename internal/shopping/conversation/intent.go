// internal/shopping/conversation/intent.go
package conversation

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	compareRe  = regexp.MustCompile(`(?i)\b(?:compare|comparison|versus|vs\.?|difference between|which (?:one )?is better)\b`)
	reviewsRe  = regexp.MustCompile(`(?i)\b(?:reviews?|feedback|what (?:do )?people say|customers say|buyers say)\b`)
	researchRe = regexp.MustCompile(`(?i)\b(?:specs?|specifications?|details|tell me more|more about|features of)\b`)

	// Phrases that always mark a refinement of the active query.
	strongFollowUpRe = regexp.MustCompile(`(?i)\b(?:cheaper|less expensive|lower price|more expensive|higher price|pricier|premium|better quality|higher end|` +
		`better rated|higher rated|higher rating|top rated|best rated|better reviews|better|` +
		`prime|(?:fast|faster|quick|express)\s+(?:shipping|delivery)|` +
		`show me more|more like|what about|how about|can i see|another|instead)\b`)

	// Explicit price or rating signals. Weaker: a new search request can carry them too.
	signalRe = regexp.MustCompile(`(?i)(?:\b(?:under|below|less than|over|above|more than|at least|up to)\s*\$?\d|\$\d|\bstars?\b|\brating\b|\bbudget\b|\bprice\b)`)

	searchVerbRe = regexp.MustCompile(`(?i)^(?:please\s+)?(?:find|search|get me|looking for|i'?m looking for|show me|i want|i need|buy|shop for)\b`)
	pronounRe    = regexp.MustCompile(`(?i)\b(?:it|this|that|these|those|them|one|ones)\b`)
	modifierRe   = regexp.MustCompile(`(?i)^(?:with|without|no|not|in|only|just|made|from|but|and|also|any|prefer|preferably|something|make it|same)\b`)

	hashRefRe    = regexp.MustCompile(`#\s*(\d+)`)
	labelRefRe   = regexp.MustCompile(`(?i)\b(?:number|no\.|item|product|option|result|pick)\s*(\d+)\b`)
	ordinalRefRe = regexp.MustCompile(`(?i)\b(?:(first|second|third|fourth|fifth|top)\s+(?:one|product|item|option|result|pick)|the\s+(first|second|third|fourth|fifth))\b`)
	bareRefRe    = regexp.MustCompile(`^\s*(\d+)\s*[.!?]?\s*$`)
	digitRe      = regexp.MustCompile(`\b(\d)\b`)
)

var ordinals = map[string]int{"top": 1, "first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5}

// productRefs returns the distinct 1-based product indices referenced by text, in order
// of appearance, keeping only indices in 1..count. Compare utterances also accept bare digits.
func productRefs(text string, count int, bareDigits bool) []int {
	if count == 0 {
		return nil
	}

	type hit struct{ pos, index int }
	var hits []hit
	add := func(locs [][]int, parse func(m []int) int) {
		for _, m := range locs {
			hits = append(hits, hit{pos: m[0], index: parse(m)})
		}
	}
	number := func(group int) func(m []int) int {
		return func(m []int) int {
			n, _ := strconv.Atoi(text[m[2*group]:m[2*group+1]])
			return n
		}
	}

	add(hashRefRe.FindAllStringSubmatchIndex(text, -1), number(1))
	add(labelRefRe.FindAllStringSubmatchIndex(text, -1), number(1))
	add(bareRefRe.FindAllStringSubmatchIndex(text, -1), number(1))
	add(ordinalRefRe.FindAllStringSubmatchIndex(text, -1), func(m []int) int {
		for g := 1; g <= 2; g++ {
			if m[2*g] >= 0 {
				return ordinals[strings.ToLower(text[m[2*g]:m[2*g+1]])]
			}
		}
		return 0
	})
	if bareDigits {
		add(digitRe.FindAllStringSubmatchIndex(text, -1), number(1))
	}

	// Stable insertion sort by position; the lists are tiny.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var out []int
	seen := map[int]bool{}
	for _, h := range hits {
		if h.index < 1 || h.index > count || seen[h.index] {
			continue
		}
		seen[h.index] = true
		out = append(out, h.index)
	}
	return out
}

var genericWords = map[string]bool{
	"more": true, "other": true, "others": true, "options": true, "option": true, "results": true,
	"something": true, "stuff": true, "items": true, "products": true, "different": true, "similar": true,
	"ones": true, "one": true, "the": true, "some": true, "any": true, "rated": true, "shipping": true,
}

// isFollowUp decides whether text refines the active query rather than starting a new search.
// parsedType is the product type the pattern parser found in text.
func isFollowUp(text string, refs []int, activeType, parsedType string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if searchVerbRe.MatchString(lower) && introducesProduct(parsedType, activeType) {
		return false
	}
	if strongFollowUpRe.MatchString(lower) {
		return true
	}
	if searchVerbRe.MatchString(lower) {
		return false
	}
	if signalRe.MatchString(lower) {
		return true
	}

	short := len(strings.Fields(lower)) < 5
	if short && (pronounRe.MatchString(lower) || len(refs) > 0) {
		return true
	}
	return short && modifierRe.MatchString(lower)
}

// hasRefinementSignal reports whether text asks to change the query at all.
func hasRefinementSignal(text string) bool {
	lower := strings.ToLower(text)
	return strongFollowUpRe.MatchString(lower) || signalRe.MatchString(lower)
}

// introducesProduct reports whether parsed names a product other than active once
// generic and refinement words are dropped.
func introducesProduct(parsed, active string) bool {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(parsed)) {
		if genericWords[w] || strongFollowUpRe.MatchString(w) || pronounRe.MatchString(w) {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return false
	}
	sub := strings.Join(words, " ")
	a := strings.ToLower(strings.TrimSpace(active))
	if a == "" {
		return true
	}
	return !strings.Contains(sub, a) && !strings.Contains(a, sub)
}
