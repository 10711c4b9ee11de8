package completion

import "fmt"

// SystemPersona is the default assistant identity for the chat endpoint.
const SystemPersona = "You are BrandMind, an expert marketing assistant for small and medium businesses in the Arab world. Answer in the same language the user writes in. Keep answers practical and actionable."

// MarketingContentPrompt builds the conversation for long-form marketing copy.
func MarketingContentPrompt(business, audience, topic, tone, locale string) []Message {
	lang := languageName(locale)
	return []Message{
		{Role: "system", Content: SystemPersona},
		{Role: "user", Content: fmt.Sprintf(
			"Write marketing content in %s for the business %q targeting %q about %q. Tone: %s. Include a hook, body, and call to action.",
			lang, business, audience, topic, tone)},
	}
}

// SocialPostPrompt builds the conversation for a platform-specific social post.
func SocialPostPrompt(business, platform, topic, locale string) []Message {
	lang := languageName(locale)
	return []Message{
		{Role: "system", Content: SystemPersona},
		{Role: "user", Content: fmt.Sprintf(
			"Write a %s post in %s for the business %q about %q. Match the platform conventions, keep it concise, and add relevant hashtags.",
			platform, lang, business, topic)},
	}
}

// AdCopyPrompt builds the conversation for short paid-ad copy.
func AdCopyPrompt(business, product, audience, locale string) []Message {
	lang := languageName(locale)
	return []Message{
		{Role: "system", Content: SystemPersona},
		{Role: "user", Content: fmt.Sprintf(
			"Write three ad copy variants in %s for %q promoting %q to %q. Each variant: headline under 40 characters plus one sentence of body text.",
			lang, business, product, audience)},
	}
}

// IdeasPrompt builds the conversation for content ideation.
func IdeasPrompt(business, industry, locale string, count int) []Message {
	if count <= 0 {
		count = 10
	}
	lang := languageName(locale)
	return []Message{
		{Role: "system", Content: SystemPersona},
		{Role: "user", Content: fmt.Sprintf(
			"Suggest %d content ideas in %s for %q in the %s industry. Return a numbered list, one line each.",
			count, lang, business, industry)},
	}
}

// ChatPrompt wraps a free-form user conversation with the assistant persona.
func ChatPrompt(history []Message, userMessage string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPersona})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: userMessage})
	return msgs
}

func languageName(locale string) string {
	if locale == "en" {
		return "English"
	}
	return "Arabic"
}
