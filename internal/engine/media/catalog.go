package media

import (
	"context"
	"math/rand/v2"

	"github.com/anatolykoptev/go_garbh/internal/engine"
)

// Raaga is a catalog raaga with its discovered listening link.
type Raaga struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Time       string            `json:"time"`
	Benefit    string            `json:"benefit"`
	Duration   string            `json:"duration"`
	URL        string            `json:"url"`
	Provenance engine.Provenance `json:"provenance"`
}

// Mantra is a catalog mantra with its discovered chanting link.
type Mantra struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Meaning    string            `json:"meaning"`
	Count      int               `json:"count"`
	URL        string            `json:"url"`
	Provenance engine.Provenance `json:"provenance"`

	context string
}

const raagaSearchContext = "instrumental meditation pregnancy relaxation"

var raagaCatalog = []Raaga{
	{ID: "yaman", Title: "Raag Yaman", Time: "Evening", Benefit: "Peace & Calm", Duration: "15:00"},
	{ID: "bhimpalasi", Title: "Raag Bhimpalasi", Time: "Afternoon", Benefit: "Emotional Balance", Duration: "12:30"},
	{ID: "bhairavi", Title: "Raag Bhairavi", Time: "Morning", Benefit: "Devotion & Love", Duration: "18:45"},
}

var mantraPool = []Mantra{
	{ID: "gayatri", Title: "Gayatri Mantra", Meaning: "Illumination of intellect", Count: 108, context: "108 times meditation peaceful chanting"},
	{ID: "om", Title: "Om Chanting", Meaning: "Universal vibration", Count: 21, context: "meditation relaxation healing"},
	{ID: "shanti", Title: "Shanti Mantra", Meaning: "Peace for all beings", Count: 11, context: "Om Shanti peaceful meditation"},
	{ID: "mahamrityunjaya", Title: "Mahamrityunjaya Mantra", Meaning: "Victory over fear and death", Count: 108, context: "Shiva mantra healing protection"},
	{ID: "ganesh", Title: "Ganesh Mantra", Meaning: "Remover of obstacles", Count: 108, context: "Om Gan Ganpataye Namah meditation"},
	{ID: "saraswati", Title: "Saraswati Vandana", Meaning: "Knowledge and Wisdom", Count: 21, context: "Ya Kundendu Tushar Hara Dhavala study focus"},
	{ID: "durga", Title: "Durga Mantra", Meaning: "Strength and Protection", Count: 108, context: "Om Dum Durgaye Namaha protection"},
	{ID: "vishnu", Title: "Vishnu Sahasranamam", Meaning: "Preservation and Peace", Count: 1, context: "Vishnu Sahasranamam peaceful chanting"},
	{ID: "hare_krishna", Title: "Hare Krishna Mantra", Meaning: "Devotion and Joy", Count: 108, context: "Hare Krishna Hare Rama kirtan meditation"},
	{ID: "asato_ma", Title: "Asato Ma Sadgamaya", Meaning: "Lead me from ignorance to truth", Count: 11, context: "Upanishad peace mantra meditation"},
}

// MantrasPerCall is how many mantras InitialMantras samples.
const MantrasPerCall = 3

// InitialRaagas resolves a link for every catalog raaga. Each found link is
// excluded from the following lookups so the raagas never share a video.
func InitialRaagas(ctx context.Context, finder LinkFinder, exclude []string) []Raaga {
	exclude = append([]string(nil), exclude...)
	out := make([]Raaga, 0, len(raagaCatalog))
	for _, r := range raagaCatalog {
		link := finder.FindVerifiedLink(ctx, engine.DiscoveryRequest{
			SearchTerm: r.Title,
			Context:    raagaSearchContext,
			Exclude:    exclude,
		})
		r.URL, r.Provenance = link.URL, link.Provenance
		if link.Found() {
			exclude = append(exclude, link.URL)
		}
		out = append(out, r)
	}
	return out
}

// InitialMantras samples MantrasPerCall distinct mantras from the pool and
// resolves a link for each, so both the set and the videos vary per call.
func InitialMantras(ctx context.Context, finder LinkFinder, exclude []string) []Mantra {
	exclude = append([]string(nil), exclude...)
	idx := rand.Perm(len(mantraPool))[:MantrasPerCall]
	out := make([]Mantra, 0, MantrasPerCall)
	for _, i := range idx {
		m := mantraPool[i]
		link := finder.FindVerifiedLink(ctx, engine.DiscoveryRequest{
			SearchTerm: m.Title,
			Context:    m.context,
			Exclude:    exclude,
		})
		m.URL, m.Provenance = link.URL, link.Provenance
		if link.Found() {
			exclude = append(exclude, link.URL)
		}
		out = append(out, m)
	}
	return out
}
