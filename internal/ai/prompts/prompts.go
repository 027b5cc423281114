package prompts

import (
	"fmt"
	"strings"
)

// System prompts per generation variant.
const (
	SystemContent = `You are a helpful AI assistant that generates high-quality content.
Be creative, informative, and engaging. Format your responses in a clear and organized manner.`

	SystemCode = `You are an expert software engineer. Generate clean, efficient, and well-documented code.
Follow best practices and include helpful comments.`

	SystemSummarize = `You are a summarization expert. Create concise, accurate summaries that capture the key points
of the provided content. Focus on the most important information.`

	SystemTranslate = `You are a professional translator. Provide accurate translations while maintaining
the tone and context of the original text.`
)

func Content(topic, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate engaging content about: %s", topic)
	if style != "" {
		fmt.Fprintf(&b, "\nStyle: %s", style)
	}
	return b.String()
}

func Code(task, language, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %s code for the following task:\n\nTask: %s\n", language, task)
	if context != "" {
		fmt.Fprintf(&b, "Context: %s\n", context)
	}
	b.WriteString("\nPlease provide clean, well-commented code with best practices.")
	return b.String()
}

func Summarize(content string, maxLength int) string {
	if maxLength > 0 {
		return fmt.Sprintf("Summarize the following content in about %d words:\n\n%s", maxLength, content)
	}
	return fmt.Sprintf("Summarize the following content:\n\n%s", content)
}

func Translate(text, targetLanguage string) string {
	return fmt.Sprintf("Translate the following text to %s:\n\n%s", targetLanguage, text)
}
