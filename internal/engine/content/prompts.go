package content

import (
	"fmt"
	"strings"
)

const systemInstruction = `You are a holistic Garbh Sanskar guide named "GarbhVeda".
Your mission is to provide a daily routine for a pregnant mother that balances:
1. Left Brain (Logic, Math, Planning)
2. Right Brain (Art, Visualization, Music)
3. Soul (Spirituality, Values, Ancient Wisdom)
4. Connection (Bonding with baby)

Use a soothing, respectful, and culturally rich tone (Indian Vedic influence but universally applicable).
Always strictly follow the JSON schema.`

const curriculumPrompt = `Create today's Garbh Sanskar plan for a mother in week %d of her pregnancy.
%s
Include one Sankalpa (a virtue for the day with a short description and a mantra) and exactly four activities,
one per category: MATH, ART, SPIRITUALITY, BONDING. Each activity must be practical for week %d.
For MATH activities, include the answer in "solution".

Return a JSON object with this exact structure:
{
  "sankalpa": {"virtue": "<virtue>", "description": "<2 sentences>", "mantra": "<mantra>"},
  "activities": [
    {
      "id": "<short_snake_case_id>",
      "category": "<MATH|ART|SPIRITUALITY|BONDING>",
      "title": "<title>",
      "description": "<one sentence>",
      "durationMinutes": <integer>,
      "content": "<step by step instructions>",
      "solution": "<answer, MATH only>"
    }
  ]
}

Return ONLY the JSON object, no markdown, no explanation.`

const dreamPrompt = `A pregnant mother had this dream:

%s

Interpret it gently through the lens of Indian tradition and modern psychology. Never predict harm,
illness or the baby's sex. End with a short positive affirmation she can repeat.

Return a JSON object with this exact structure:
{"interpretation": "<3-5 sentences>", "affirmation": "<one sentence>"}

Return ONLY the JSON object, no markdown, no explanation.`

const financialPrompt = `Give three practical financial planning tips for expecting parents in India
(for example: emergency fund, health insurance, education savings, budgeting for delivery costs).

Return a JSON object with this exact structure:
{
  "tips": [
    {"id": "<short_id>", "title": "<title>", "content": "<2-3 sentences>", "icon": "<PiggyBank|TrendingUp|DollarSign|Wallet|CreditCard>"}
  ]
}

Return ONLY the JSON object, no markdown, no explanation.`

const rhythmicMathPrompt = `Suggest three rhythmic math activities a pregnant mother can do with music or clapping
(counting beats, skip counting, simple patterns). Give each a tempo in beats per minute between 40 and 120.

Return a JSON object with this exact structure:
{
  "activities": [
    {"id": "<short_id>", "title": "<title>", "duration": "<mm:ss>", "bpm": <integer>}
  ]
}

Return ONLY the JSON object, no markdown, no explanation.`

const raagaPrompt = `Recommend three Indian classical raagas that are calming and suitable for pregnancy.
Pick raagas for different times of day. Do not include any URLs.

Return a JSON object with this exact structure:
{
  "raagas": [
    {"id": "<lowercase_id>", "title": "Raag <Name>", "time": "<Morning|Afternoon|Evening|Night>", "benefit": "<2-4 words>", "duration": "<mm:ss>"}
  ]
}

Return ONLY the JSON object, no markdown, no explanation.`

const vedicNamesPrompt = `Suggest 10 %s for %s.
%s
%s
%s
Return a JSON object with this exact structure:
{
  "names": [
    {"name": "<name>", "meaning": "<meaning>", "origin": "<Sanskrit|Vedic|Puranic|...>", "significance": "<one sentence>"}
  ]
}

Return ONLY the JSON object, no markdown, no explanation.`

const dadJokesPrompt = `Write 50 short, wholesome dad jokes an expecting father can tell his partner.
Keep them family friendly; pregnancy and parenting puns are welcome.

Return a JSON object with this exact structure:
{"jokes": ["<joke>", "<joke>"]}

Return ONLY the JSON object, no markdown, no explanation.`

// moodInstruction tailors the curriculum to the mother's reported mood.
func moodInstruction(mood string) string {
	mood = strings.TrimSpace(mood)
	if mood == "" {
		return ""
	}
	return fmt.Sprintf("The mother is feeling %s. Customize the activities and Sankalpa to support this emotional state "+
		"(e.g., if Tired -> Restorative, if Anxious -> Calming, if Happy -> Celebrating).\n", mood)
}

// Vedic-name themes and how each steers the suggestions.
var nameThemes = map[string]string{
	"Modern":      "Short, easy to pronounce, contemporary, stylish, unique but not obscure.",
	"Traditional": "Rooted in Vedas/Puranas, classic, timeless, deep historical significance.",
	"Nature":      "Related to elements (earth, water, fire, air, sky), flowers, trees, celestial bodies.",
	"Spiritual":   "Related to gods, goddesses, divine qualities, soul, meditation, mantras.",
	"Royal":       "Names of kings, queens, signifying power, majesty, nobility, grandeur.",
}

func vedicNamesPromptFor(gender, letter, theme string) string {
	genderPhrase := "a baby " + gender
	if strings.EqualFold(gender, "unisex") {
		genderPhrase = "a baby (Gender-Neutral / Unisex names suitable for both boys and girls)"
	}

	intro := "Vedic/Sanskrit names"
	significance := "Names should have deep spiritual or historical significance."
	if theme == "Modern" {
		intro = "modern, trendy Indian names with Sanskrit roots"
		significance = "Names should have a beautiful meaning and contemporary appeal."
	}

	var letterLine string
	if letter != "" {
		letterLine = fmt.Sprintf("Every name must start with the letter %q.", letter)
	}

	var themeLine string
	if theme != "" {
		details, ok := nameThemes[theme]
		if !ok {
			details = theme
		}
		themeLine = fmt.Sprintf("Target Theme: %s (%s). Tailor names STRICTLY to this theme.", theme, details)
	}

	return fmt.Sprintf(vedicNamesPrompt, intro, genderPhrase, significance, letterLine, themeLine)
}
