package chat

import "tutor-app/internal/repository/db"

// FallbackReply is stored as the assistant turn whenever the model fails
const FallbackReply = "Es tut mir leid, ich konnte deine Nachricht nicht verstehen. Kannst du es bitte noch einmal versuchen? / I'm sorry, I couldn't understand your message. Could you please try again?"

var systemPrompts = map[db.Difficulty]string{
	db.DifficultyEasy: "You are LearnLM, a friendly AI tutor helping a child learn English. " +
		"Keep your responses simple, encouraging, and educational. Provide German translations for new words. " +
		"Focus on basic vocabulary and simple sentence structures.",
	db.DifficultyMedium: "You are LearnLM, a friendly AI tutor helping a child learn English at an intermediate level. " +
		"Use more complex vocabulary and sentence structures while still being supportive. " +
		"Provide German translations for new terms.",
	db.DifficultyHard: "You are LearnLM, a friendly AI tutor helping a child learn English at an advanced level. " +
		"Challenge them with more complex vocabulary and grammar while being supportive. " +
		"Provide German translations for difficult terms.",
}

// SystemPrompt returns the tutor instructions for a difficulty level.
// Unknown levels get the easy prompt.
func SystemPrompt(level db.Difficulty) string {
	if p, ok := systemPrompts[level]; ok {
		return p
	}
	return systemPrompts[db.DifficultyEasy]
}
