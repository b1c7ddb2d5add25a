package analysis

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FallbackSummaryLimit caps the degraded summary, counted in characters.
const FallbackSummaryLimit = 400

// greedy: first '{' through last '}'
var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Interpret turns the model's raw reply into a Result. It never fails.
//
// The reply is first parsed as a JSON object. If that fails, the first
// brace-delimited span inside the text is parsed instead. Either object must
// carry both "summary" and "sentiment"; otherwise the result degrades to the
// leading FallbackSummaryLimit characters of the trimmed reply with sentiment
// "unknown". Values are passed through verbatim, the sentiment vocabulary is
// not enforced.
func Interpret(raw string) Result {
	outcome := OutcomeStrict
	obj, ok := parseObject(raw)
	if !ok {
		outcome = OutcomeEmbedded
		if span := objectSpan.FindString(raw); span != "" {
			obj, ok = parseObject(span)
		}
	}
	if ok {
		if res, found := fromObject(obj); found {
			res.Outcome = outcome
			return res
		}
	}
	return degrade(raw)
}

func parseObject(s string) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	// "null" decodes without error into a nil map
	return obj, obj != nil
}

func fromObject(obj map[string]json.RawMessage) (Result, bool) {
	summary, hasSummary := obj["summary"]
	sentiment, hasSentiment := obj["sentiment"]
	if !hasSummary || !hasSentiment {
		return Result{}, false
	}
	return Result{
		Summary:   verbatim(summary),
		Sentiment: verbatim(sentiment),
	}, true
}

// verbatim renders a JSON value as text: strings unquoted, null as "",
// anything else as compact JSON.
func verbatim(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

func degrade(raw string) Result {
	text := strings.TrimSpace(raw)
	if utf8.RuneCountInString(text) > FallbackSummaryLimit {
		text = string([]rune(text)[:FallbackSummaryLimit])
	}
	return Result{
		Summary:   text,
		Sentiment: SentimentUnknown,
		Outcome:   OutcomeDegraded,
	}
}
