// Package content generates the app's structured JSON content through the
// active model provider. Model output is trusted only after it passes the
// contract schemas in schemas.go; links inside the content come from the
// media package, never from the model.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/media"
)

// Pregnancy weeks accepted by DailyCurriculum.
const (
	MinWeek = 1
	MaxWeek = 42
)

// CannedJoke is served when no joke batch can be generated.
const CannedJoke = "Why did the scarecrow win an award? Because he was outstanding in his field!"

// ErrInvalidInput marks a request rejected before any model call.
var ErrInvalidInput = errors.New("invalid input")

// ResourceFinder fills an activity's resource list. *media.Pipeline implements it.
type ResourceFinder interface {
	FindResources(ctx context.Context, title, description, category string, exclude []string) []engine.ResourceLink
}

// Sankalpa is the day's intention.
type Sankalpa struct {
	Virtue      string `json:"virtue"`
	Description string `json:"description"`
	Mantra      string `json:"mantra"`
}

// Activity is one curriculum item.
type Activity struct {
	ID              string                `json:"id"`
	Category        string                `json:"category"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	DurationMinutes int                   `json:"durationMinutes"`
	Content         string                `json:"content"`
	Solution        string                `json:"solution,omitempty"`
	Resources       []engine.ResourceLink `json:"resources"`
	IsCompleted     bool                  `json:"isCompleted"`
}

// Curriculum is the daily plan.
type Curriculum struct {
	Sankalpa   Sankalpa   `json:"sankalpa"`
	Activities []Activity `json:"activities"`
}

// DreamInterpretation answers interpret_dream.
type DreamInterpretation struct {
	Interpretation string `json:"interpretation"`
	Affirmation    string `json:"affirmation"`
}

type FinancialTip struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Icon    string `json:"icon"`
}

type FinancialWisdom struct {
	Tips []FinancialTip `json:"tips"`
}

type RhythmicMathActivity struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	BPM      int    `json:"bpm"`
}

type RhythmicMath struct {
	Activities []RhythmicMathActivity `json:"activities"`
}

// RaagaList wraps recommended or catalog raagas.
type RaagaList struct {
	Raagas []media.Raaga `json:"raagas"`
}

// VedicName is one suggested baby name.
type VedicName struct {
	Name         string `json:"name"`
	Meaning      string `json:"meaning"`
	Origin       string `json:"origin,omitempty"`
	Significance string `json:"significance,omitempty"`
}

// DailyCurriculum generates the plan for week and fills every activity's
// resources through res. Links already used by an earlier activity, and the
// caller's exclusions, are not repeated.
func DailyCurriculum(ctx context.Context, week int, mood string, res ResourceFinder, exclude []string) (*Curriculum, error) {
	if week < MinWeek || week > MaxWeek {
		return nil, fmt.Errorf("%w: week must be between %d and %d", ErrInvalidInput, MinWeek, MaxWeek)
	}
	prompt := fmt.Sprintf(curriculumPrompt, week, moodInstruction(mood), week)

	var c Curriculum
	if err := generateJSON(ctx, "curriculum", SchemaCurriculum, prompt, &c); err != nil {
		return nil, err
	}

	exclude = append([]string(nil), exclude...)
	for i := range c.Activities {
		a := &c.Activities[i]
		a.IsCompleted = false
		if res == nil {
			a.Resources = []engine.ResourceLink{media.FallbackResource(a.Title, a.Category)}
			continue
		}
		a.Resources = res.FindResources(ctx, a.Title, a.Description, a.Category, exclude)
		for _, r := range a.Resources {
			if r.Provenance != engine.ProvenanceSearchFallback {
				exclude = append(exclude, r.URL)
			}
		}
	}
	slog.Info("content: curriculum generated", slog.Int("week", week), slog.Int("activities", len(c.Activities)))
	return &c, nil
}

// CannedCurriculum is the restful plan served while the provider is rate limited.
func CannedCurriculum() *Curriculum {
	return &Curriculum{
		Sankalpa: Sankalpa{
			Virtue:      "Patience",
			Description: "The universe is replenishing its energy. Please take a moment to breathe and try again shortly.",
			Mantra:      "Om Shanti Shanti Shanti",
		},
		Activities: []Activity{{
			ID:              "fallback_rest",
			Category:        "SPIRITUALITY",
			Title:           "Rest & Rejuvenate",
			Description:     "Our AI guide needs a short break to recharge. Please practice deep breathing for 5 minutes.",
			DurationMinutes: 5,
			Content:         "Sit comfortably, close your eyes, and focus on your breath. Inhale deeply for a count of 4, hold for 4, and exhale for 6.",
			Resources:       []engine.ResourceLink{},
		}},
	}
}

// maxDreamRunes bounds the dream text sent to the model.
const maxDreamRunes = 4000

// InterpretDream interprets a dream journal entry.
func InterpretDream(ctx context.Context, dream string) (*DreamInterpretation, error) {
	dream = strings.TrimSpace(dream)
	if dream == "" {
		return nil, fmt.Errorf("%w: dream text is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(dream) > maxDreamRunes {
		dream = engine.TruncateAtWord(dream, maxDreamRunes)
	}
	var d DreamInterpretation
	if err := generateJSON(ctx, "dream", SchemaDream, fmt.Sprintf(dreamPrompt, dream), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GenerateFinancialWisdom returns three planning tips.
func GenerateFinancialWisdom(ctx context.Context) (*FinancialWisdom, error) {
	var f FinancialWisdom
	if err := generateJSON(ctx, "financial_wisdom", SchemaFinancial, financialPrompt, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GenerateRhythmicMath returns three beat-counting activities.
func GenerateRhythmicMath(ctx context.Context) (*RhythmicMath, error) {
	var r RhythmicMath
	if err := generateJSON(ctx, "rhythmic_math", SchemaRhythmic, rhythmicMathPrompt, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// RaagaRecommendations asks the model which raagas to play, then finds a link
// for each through finder. The model is never trusted with URLs.
func RaagaRecommendations(ctx context.Context, finder media.LinkFinder, exclude []string) (*RaagaList, error) {
	var list RaagaList
	if err := generateJSON(ctx, "raaga_recommendations", SchemaRaagas, raagaPrompt, &list); err != nil {
		return nil, err
	}
	exclude = append([]string(nil), exclude...)
	for i := range list.Raagas {
		r := &list.Raagas[i]
		link := finder.FindVerifiedLink(ctx, engine.DiscoveryRequest{
			SearchTerm: r.Title + " indian classical raaga instrumental for pregnancy",
			Exclude:    exclude,
		})
		r.URL, r.Provenance = link.URL, link.Provenance
		if link.Found() {
			exclude = append(exclude, link.URL)
		}
	}
	return &list, nil
}

// Genders accepted by VedicNames.
var nameGenders = map[string]string{"boy": "boy", "girl": "girl", "unisex": "unisex"}

// VedicNames suggests baby names. letter and theme are optional.
func VedicNames(ctx context.Context, gender, letter, theme string) ([]VedicName, error) {
	g, ok := nameGenders[strings.ToLower(strings.TrimSpace(gender))]
	if !ok {
		return nil, fmt.Errorf("%w: gender must be boy, girl or unisex", ErrInvalidInput)
	}
	letter = strings.TrimSpace(letter)
	if utf8.RuneCountInString(letter) > 1 {
		return nil, fmt.Errorf("%w: starting letter must be a single character", ErrInvalidInput)
	}
	letter = strings.ToUpper(letter)

	var out struct {
		Names []VedicName `json:"names"`
	}
	if err := generateJSON(ctx, "vedic_names", SchemaVedicNames, vedicNamesPromptFor(g, letter, strings.TrimSpace(theme)), &out); err != nil {
		return nil, err
	}
	if letter != "" {
		kept := out.Names[:0]
		for _, n := range out.Names {
			if strings.HasPrefix(strings.ToUpper(n.Name), letter) {
				kept = append(kept, n)
			}
		}
		out.Names = kept
	}
	return out.Names, nil
}

// DadJokes returns a batch of jokes.
func DadJokes(ctx context.Context) ([]string, error) {
	var out struct {
		Jokes []string `json:"jokes"`
	}
	if err := generateJSON(ctx, "dad_jokes", SchemaDadJokes, dadJokesPrompt, &out); err != nil {
		return nil, err
	}
	return out.Jokes, nil
}

// generateJSON runs one JSON-mode model call, checks the answer against the
// named schema and decodes it into v. Rate limits stay detectable with
// errors.Is(err, engine.ErrRateLimited).
func generateJSON(ctx context.Context, op, schema, prompt string, v any) error {
	return engine.TrackOperation(ctx, op, func(ctx context.Context) error {
		out, err := engine.Generate(ctx, engine.GenerateRequest{
			Prompt: prompt,
			System: systemInstruction,
			JSON:   true,
		})
		if err != nil {
			return fmt.Errorf("%s LLM: %w", op, err)
		}

		raw := engine.StripFences(out.Text)
		if !json.Valid([]byte(raw)) {
			raw = engine.ExtractJSONObject(out.Text)
		}
		if err := Validate(schema, []byte(raw)); err != nil {
			slog.Debug("content: schema rejected model output",
				slog.String("op", op), slog.String("raw", engine.Preview(raw, 200)), slog.Any("error", err))
			return err
		}
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return fmt.Errorf("%s parse: %w (raw: %s)", op, err, engine.Preview(raw, 200))
		}
		return nil
	})
}
