package safety

import "regexp"

// Phrases commonly used to steer a model away from its instructions.
// A match is a signal for the logs, not a reason to block.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(ignore|disregard)\b.*\b(previous|prior)\b`),
	regexp.MustCompile(`(?i)\b(system prompt|developer message|hidden instructions)\b`),
	regexp.MustCompile(`(?i)\bdo not follow\b|\bforget\b|\boverride\b`),
	regexp.MustCompile(`(?i)\byou are (now|no longer)\b`),
	regexp.MustCompile(`(?i)\b(ignore|disregard)\b.*\b(above|earlier|earlier messages)\b`),
	regexp.MustCompile(`(?i)\b(ignore|disregard)\b.*\b(instructions|rules|guidelines)\b`),
	regexp.MustCompile(`(?i)\b(reset|wipe)\b.*\b(instructions|system prompt|developer message)\b`),
	regexp.MustCompile(`(?i)\b(reveal|show|print|leak|dump)\b.*\b(system prompt|developer message|hidden instructions)\b`),
	regexp.MustCompile(`(?i)\b(what are|show me)\b.*\b(your|the)\b.*\b(instructions|system prompt|developer message)\b`),
	regexp.MustCompile(`(?i)\b(repeat|quote)\b.*\b(system prompt|developer message|hidden instructions)\b`),
	regexp.MustCompile(`(?i)\bverbatim\b.*\b(system prompt|developer message|instructions)\b`),
	regexp.MustCompile(`(?i)\b(act as|roleplay as|pretend to be)\b`),
	regexp.MustCompile(`(?i)\b(simulate|emulate)\b.*\b(system|developer|admin)\b`),
	regexp.MustCompile(`(?i)\bDAN\b|\bdo anything now\b`),
	regexp.MustCompile(`(?i)\bdeveloper mode\b|\bjailbreak\b|\bprompt injection\b`),
	regexp.MustCompile(`(?i)\b(bypass|circumvent|evade)\b.*\b(safety|filters|guardrails|policy)\b`),
	regexp.MustCompile(`(?i)\b(unfiltered|uncensored|no restrictions)\b`),
	regexp.MustCompile(`(?i)\b(ignore|disable)\b.*\b(moderation|content policy|safety checks)\b`),
	regexp.MustCompile(`(?i)\b(override)\b.*\b(system|developer)\b`),
	regexp.MustCompile(`(?i)\b(you must|you will)\b.*\b(comply|follow)\b`),
	regexp.MustCompile(`(?i)\b(do not|don't)\b.*\b(refuse|decline)\b`),
	regexp.MustCompile(`(?is)\bBEGIN\b.*\b(SYSTEM|DEVELOPER)\b|\bEND\b.*\b(SYSTEM|DEVELOPER)\b`),
	regexp.MustCompile(`(?i)(###|<)\s*(system|developer)\s*(prompt|message|instructions)\b`),
	regexp.MustCompile(`(?i)\b(confidential|internal)\b.*\b(instructions|prompt)\b`),
}

// DetectInjection returns the patterns that match the normalized text
func DetectInjection(text string) []string {
	text = Normalize(text)
	var hits []string
	for _, re := range injectionPatterns {
		if re.MatchString(text) {
			hits = append(hits, re.String())
		}
	}
	return hits
}
