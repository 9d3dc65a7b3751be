package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"subtrans/internal/translate"
)

const lineKeyPrefix = "translated_line_"

const translationSystemPrompt = `You are a professional subtitle translator. You translate subtitle cues
faithfully while keeping them natural to read at viewing speed. Preserve
line breaks within a cue, keep names and numbers intact, and never add
commentary. Respond with JSON only.`

const contextSystemPrompt = `You identify the subject matter of subtitle files so a translator can pick
appropriate vocabulary and tone. Respond with JSON only.`

// buildTranslationPrompt renders one chunk as a numbered batch. Each cue keeps
// its original index so the response schema can demand an answer for every
// submitted line.
func buildTranslationPrompt(req translate.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following subtitle cues into %s.\n", req.TargetLanguage)
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		fmt.Fprintf(&b, "Subject matter: %s\n", ctx)
	}
	b.WriteString("Return a JSON object with one key per cue, named ")
	b.WriteString(lineKeyPrefix)
	b.WriteString("<number>, holding the translated text for that cue.\n")
	b.WriteString("Keep line breaks inside a cue as \\n.\n\n")
	for _, item := range req.Items {
		fmt.Fprintf(&b, "Line %d:\n%s\n\n", item.Index, strings.Join(item.Lines, "\n"))
	}
	return b.String()
}

func buildContextPrompt(sample []string, targetLanguage string) string {
	var b strings.Builder
	b.WriteString("Below is the beginning of a subtitle file that will be translated into ")
	b.WriteString(targetLanguage)
	b.WriteString(".\n")
	b.WriteString("Describe the likely subject matter and tone in one short sentence.\n")
	b.WriteString("Return a JSON object: {\"context\": \"<description>\"}\n\n")
	for _, line := range sample {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// translationSchema builds a response schema requiring exactly one string per
// submitted cue. Gemini's JSON mode enforces the shape server-side, which
// keeps incomplete responses out of the orchestrator's validation path most
// of the time.
func translationSchema(items []translate.Item) *schema {
	properties := make(map[string]*schema, len(items))
	required := make([]string, 0, len(items))
	for _, item := range items {
		key := lineKeyPrefix + strconv.Itoa(item.Index)
		properties[key] = &schema{Type: "STRING"}
		required = append(required, key)
	}
	return &schema{
		Type:       "OBJECT",
		Properties: properties,
		Required:   required,
	}
}

func contextSchema() *schema {
	return &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"context": {Type: "STRING"},
		},
		Required: []string{"context"},
	}
}

func parseLineKey(key string) (int, bool) {
	if !strings.HasPrefix(key, lineKeyPrefix) {
		return 0, false
	}
	index, err := strconv.Atoi(key[len(lineKeyPrefix):])
	if err != nil {
		return 0, false
	}
	return index, true
}

// DecodeModelJSON decodes JSON from a model response, handling common
// formatting quirks such as code fences and leading prose.
func DecodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, summarizePayloadSnippet(sanitized))
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
