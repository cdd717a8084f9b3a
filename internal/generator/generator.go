// Package generator produces synthetic business records for scrape jobs.
package generator

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/model"
)

// MaxResults is the upper bound applied to every result limit
const MaxResults = 100

const (
	minRating      = 3.5
	maxRating      = 5.0
	minReviews     = 10
	reviewSpan     = 500
	coordJitter    = 0.025
	maxHouseNumber = 200
)

// Generator turns a query into business records. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a generator drawing field values from src
func New(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// NewDefault creates a generator with a randomly seeded source
func NewDefault() *Generator {
	return New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generate returns exactly min(resultLimit, MaxResults) records in emission order
func (g *Generator) Generate(queryText, location string, resultLimit int) ([]model.BusinessRecord, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "query text must not be empty")
	}
	if resultLimit < 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "result limit must not be negative, got %d", resultLimit)
	}
	if resultLimit > MaxResults {
		resultLimit = MaxResults
	}

	query := strings.ToLower(queryText)
	categories, names := lookupKeywords(query)
	base := lookupCity(location)
	location = strings.TrimSpace(location)

	g.mu.Lock()
	defer g.mu.Unlock()

	records := make([]model.BusinessRecord, 0, resultLimit)
	for i := 0; i < resultLimit; i++ {
		name := names[i%len(names)]
		records = append(records, model.BusinessRecord{
			ID:           uuid.New().String(),
			Name:         name,
			Category:     categories[i%len(categories)],
			Address:      g.address(location),
			Phone:        g.phone(),
			Website:      Website(name),
			Rating:       model.Ptr(g.rating()),
			ReviewCount:  model.Ptr(minReviews + g.rnd.IntN(reviewSpan)),
			OpeningHours: openingHoursTemplates[g.rnd.IntN(len(openingHoursTemplates))],
			Coordinates: &model.Coordinates{
				Lat: base.Lat + g.jitter(),
				Lng: base.Lng + g.jitter(),
			},
		})
	}

	return records, nil
}

// Website builds the synthetic homepage URL for a business name
func Website(name string) string {
	return "https://www." + slug(name) + ".de"
}

func lookupKeywords(query string) (categories, names []string) {
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(query, kw) {
				return set.categories, set.names
			}
		}
	}
	return genericCategories, genericNames
}

func lookupCity(location string) model.Coordinates {
	if c, ok := cityCoordinates[strings.ToLower(strings.TrimSpace(location))]; ok {
		return c
	}
	return defaultCoordinates
}

func (g *Generator) address(location string) string {
	street := streetNames[g.rnd.IntN(len(streetNames))]
	addr := street + " " + strconv.Itoa(1+g.rnd.IntN(maxHouseNumber))
	if location != "" {
		addr += ", " + location
	}
	return addr
}

// phone draws an 8-digit subscriber number; the display format keeps its first six digits.
func (g *Generator) phone() string {
	area := areaCodes[g.rnd.IntN(len(areaCodes))]
	subscriber := strconv.Itoa(10_000_000 + g.rnd.IntN(90_000_000))
	return area + " " + subscriber[:3] + " " + subscriber[3:6]
}

func (g *Generator) rating() float64 {
	r := minRating + g.rnd.Float64()*(maxRating-minRating)
	return math.Round(r*10) / 10
}

func (g *Generator) jitter() float64 {
	return (g.rnd.Float64()*2 - 1) * coordJitter
}

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue")

func slug(name string) string {
	s := umlauts.Replace(strings.ToLower(name))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('-')
		case r == '-', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
