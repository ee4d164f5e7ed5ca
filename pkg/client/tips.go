package client

import (
	"math/rand/v2"
	"strings"
)

// Tip is a bilingual learning hint
type Tip struct {
	German  string
	English string
}

var tips = []Tip{
	{
		German:  `Versuche, einfache Fragen auf Englisch zu stellen. Zum Beispiel: "What is your name?" (Wie heißt du?)`,
		English: `Try asking simple questions in English. For example: "What is your name?"`,
	},
	{
		German:  "Übe täglich für 10-15 Minuten, um dein Englisch zu verbessern.",
		English: "Practice for 10-15 minutes daily to improve your English.",
	},
	{
		German:  "Wiederhole die Wörter laut, um deine Aussprache zu verbessern.",
		English: "Repeat the words out loud to improve your pronunciation.",
	},
}

// RandomTip picks one of the learning tips
func RandomTip() Tip {
	return tips[rand.IntN(len(tips))]
}

// Topic is a conversation starter offered to the learner
type Topic struct {
	Emoji   string
	German  string
	English string
	// Prompt is the message sent when the topic is picked
	Prompt string
	// Welcome is the greeting shown before the first message
	Welcome Tip
}

var topics = []Topic{
	{
		Emoji: "🎾", German: "Tennis", English: "Tennis",
		Prompt: "Ich möchte über Tennis sprechen / I want to talk about tennis",
		Welcome: Tip{
			German:  "Lass uns über Tennis sprechen! Spielst du gerne Tennis?",
			English: "Let's talk about tennis! Do you like playing tennis?",
		},
	},
	{
		Emoji: "🎮", German: "Minecraft", English: "Minecraft",
		Prompt: "Lass uns über Minecraft reden / Let's talk about Minecraft",
		Welcome: Tip{
			German:  "Minecraft ist ein spannendes Spiel! Was baust du am liebsten?",
			English: "Minecraft is an exciting game! What do you like to build?",
		},
	},
	{
		Emoji: "☀️", German: "Wetter", English: "Weather",
		Prompt: "Wie ist das Wetter heute? / How is the weather today?",
		Welcome: Tip{
			German:  "Das Wetter ist ein interessantes Thema! Wie ist es heute bei dir?",
			English: "Weather is an interesting topic! How is it where you are today?",
		},
	},
	{
		Emoji: "🍕", German: "Essen", English: "Food",
		Prompt: "Lass uns über Essen sprechen / Let's talk about food",
		Welcome: Tip{
			German:  "Lass uns über Essen sprechen! Was ist dein Lieblingsessen?",
			English: "Let's talk about food! What's your favorite food?",
		},
	},
}

var defaultWelcome = Tip{
	German:  "Worüber möchtest du heute sprechen?",
	English: "What would you like to talk about today?",
}

// Topics returns the suggested conversation topics
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

// TopicByName finds a topic by its German or English name, ignoring case
func TopicByName(name string) (Topic, bool) {
	for _, t := range topics {
		if strings.EqualFold(t.German, name) || strings.EqualFold(t.English, name) {
			return t, true
		}
	}
	return Topic{}, false
}

// WelcomeMessage returns the greeting for an empty transcript. A draft
// mentioning a topic gets that topic's greeting.
func WelcomeMessage(draft string) Tip {
	for _, t := range topics {
		if strings.Contains(draft, t.German) {
			return t.Welcome
		}
	}
	return defaultWelcome
}
