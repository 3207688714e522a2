// internal/shopping/parser/patterns.go
package parser

import "regexp"

const number = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`

var (
	maxPriceRe = regexp.MustCompile(`(?i)\b(?:under|less than|below|max|maximum|up to)\s*\$?\s*` + number + `(\s*(?:stars?|reviews?|ratings?)\b)?`)
	minPriceRe = regexp.MustCompile(`(?i)\b(?:over|more than|above|min|minimum|starting from|at least)\s*\$?\s*` + number + `(\s*(?:stars?|reviews?|ratings?)\b)?`)
	rangeRe    = regexp.MustCompile(`(?i)\$\s*` + number + `\s*(?:to|-)\s*\$?\s*` + number + `(\s*(?:stars?|reviews?|ratings?)\b)?`)

	ratingKeywordRe = regexp.MustCompile(`(?i)\b(?:rated|rating|stars?|reviews?)\s*(?:of|with|above|at least|over)?\s*(\d(?:\.\d+)?)\b`)
	ratingStarsRe   = regexp.MustCompile(`(?i)\b(\d(?:\.\d+)?)\s*\+?\s*stars?\b`)

	shippingRe = regexp.MustCompile(`(?i)\b(?:prime|fast|quick|rapid|express)\s+(?:shipping|delivery)\b`)

	originRe      = regexp.MustCompile(`(?i)\b(?:made in|manufactured in|from)\s+(?:the\s+)?([a-z]+)`)
	materialRe    = regexp.MustCompile(`(?i)\b([a-z]+)\s+(?:material|fabric|metal|wood)\b`)
	madeOfRe      = regexp.MustCompile(`(?i)\bmade of\s+([a-z]+)`)
	exclusionRe   = regexp.MustCompile(`(?i)\b(?:without|excluding|no|not|don'?t want)\s+([a-z][a-z\s,\-]*?)(?:$|[.;!?]|\s+(?:under|with|that|for|above|below|rated|from|made|less|over|but)\b)`)
	keywordTrigRe = regexp.MustCompile(`(?i)\b(?:with|has|having|includes?|including|contains?|containing|that is|which is|that are|which are)\s+`)
	clauseStopRe  = regexp.MustCompile(`(?i)\s+(?:with|has|having|includes?|including|contains?|containing|that|which|for|under|below|above|less than|more than|rated|from|made|without|excluding|but)\b|[.;!?]`)
	listSplitRe   = regexp.MustCompile(`(?i)\s*,\s*|\s+(?:and|or)\s+`)
	trailConjRe   = regexp.MustCompile(`(?i)\s+(?:and|or)$`)
	articleRe     = regexp.MustCompile(`(?i)^(?:a|an|the)\s+`)
	starsRe       = regexp.MustCompile(`(?i)\bstars?\b`)

	// A bound directly after "rated" or "rating" is a rating, not a price.
	ratingLeadRe = regexp.MustCompile(`(?i)\b(?:rated|ratings?)\s*$`)
)

// Leading words dropped before the product type. Two-word fillers are checked first.
var (
	multiFillers  = []string{"search for", "looking for", "shop for"}
	singleFillers = map[string]bool{
		"find": true, "get": true, "show": true, "me": true,
		"a": true, "an": true, "some": true, "i": true, "want": true, "need": true,
	}
)

// Words that end the product-type noun phrase.
var boundaryWords = map[string]bool{
	"under": true, "with": true, "that": true, "for": true, "above": true,
	"below": true, "rated": true, "by": true, "from": true, "without": true,
	"excluding": true, "made": true, "between": true, "which": true,
}

var boundaryPairs = map[string]bool{"less than": true, "more than": true, "up to": true}

// Words that never name a material or origin on their own.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "any": true, "some": true,
	"good": true, "with": true, "no": true, "my": true, "your": true, "its": true,
	"this": true, "that": true, "quality": true, "high": true, "real": true,
	"amazon": true, "here": true, "there": true,
}
