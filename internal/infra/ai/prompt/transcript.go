package prompt

import "fmt"

// GetSystemPrompt asks for exactly one JSON object with summary and sentiment.
func GetSystemPrompt() string {
	return "You are a concise assistant. Given a customer call transcript, return a VALID JSON object " +
		"with exactly two fields: \"summary\" and \"sentiment\".\n" +
		"- \"summary\": 2-3 short sentences summarizing the customer's issue.\n" +
		"- \"sentiment\": one of \"positive\", \"neutral\", or \"negative\" (you may also add a one-word adjective like 'frustrated' before the label, e.g. 'frustrated/negative').\n" +
		"Output ONLY the JSON object and nothing else."
}

// GetUserPrompt wraps the transcript verbatim.
func GetUserPrompt(transcript string) string {
	return fmt.Sprintf("Transcript:\n%s\n\nReturn JSON only.", transcript)
}
