package service

import (
	"context"
	"fmt"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

// BookService joins raw analysis rows with the static hero metadata before
// anything is delivered to a client.
type BookService struct {
	books storage.BookRepository
}

func NewBookService(books storage.BookRepository) *BookService {
	return &BookService{books: books}
}

func (s *BookService) FindResultsByUserAndBook(ctx context.Context, userID, bookID int64) ([]models.Hero, error) {
	results, err := s.books.GetResultsByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}

	heroes := make([]models.Hero, 0, len(results))
	for _, result := range results {
		superPower, description := superPowerDescription(result.ModelName, result.TraitName)
		heroes = append(heroes, models.Hero{
			ID:          result.ID,
			ModelName:   friendlyModelName(result.ModelName),
			SuperPower:  superPower,
			Description: description,
		})
	}
	return heroes, nil
}

// EnrichPublicResults maps raw rows from an anonymous analysis; nothing is
// persisted for those, so the rows arrive inline with the completion message.
func (s *BookService) EnrichPublicResults(results []models.Result) []models.PublicHero {
	heroes := make([]models.PublicHero, 0, len(results))
	for _, result := range results {
		superPower, description := superPowerDescription(result.ModelName, result.TraitName)
		heroes = append(heroes, models.PublicHero{
			ModelName:   friendlyModelName(result.ModelName),
			SuperPower:  superPower,
			Description: description,
		})
	}
	return heroes
}

var friendlyModelNames = map[string]string{
	"OCEAN":    "Big 5 Personality Traits",
	"DISC":     "DISC Assessment",
	"VARK":     "VARK Learning Styles",
	"NINE_INT": "Gardner's Theory of Multiple Intelligences",
}

func friendlyModelName(modelName string) string {
	if friendly, ok := friendlyModelNames[modelName]; ok {
		return friendly
	}
	return modelName
}

type superPower struct {
	SuperPower  string
	Description string
}

var superPowers = map[string]map[string]superPower{
	"OCEAN": {
		"openness":          {"Visionary Explorer", "You see possibilities everywhere and embrace new experiences with curiosity."},
		"conscientiousness": {"Master Planner", "Your discipline and attention to detail turn ambitious plans into reality."},
		"extraversion":      {"Energy Catalyst", "You energize every room you enter and draw people together."},
		"agreeableness":     {"Harmony Weaver", "You build trust effortlessly and bring out the best in others."},
		"neuroticism":       {"Deep Feeler", "Your emotional sensitivity lets you notice what others miss."},
	},
	"DISC": {
		"dominance":         {"Bold Commander", "You take charge of challenges and push through obstacles."},
		"influence":         {"Natural Persuader", "Your enthusiasm moves people to action."},
		"steadiness":        {"Steady Anchor", "You bring calm and reliability to any storm."},
		"conscientiousness": {"Precision Architect", "You build on accuracy, logic and quality."},
	},
	"VARK": {
		"visual":      {"Pattern Seer", "You grasp complex ideas by seeing how the pieces fit together."},
		"aural":       {"Sound Sage", "You learn and remember best through listening and discussion."},
		"read_write":  {"Word Alchemist", "You transform written words into deep understanding."},
		"kinesthetic": {"Hands-On Hero", "You learn by doing and make abstract ideas tangible."},
	},
	"NINE_INT": {
		"linguistic":    {"Language Virtuoso", "Words bend to your will in speech and writing."},
		"logical":       {"Logic Weaver", "You reason through complexity with ease."},
		"musical":       {"Rhythm Keeper", "You perceive the world through melody, rhythm and tone."},
		"spatial":       {"Space Shaper", "You visualize and manipulate the world in your mind's eye."},
		"kinesthetic":   {"Body Maestro", "Your body and mind move in rare coordination."},
		"interpersonal": {"People Whisperer", "You read intentions and moods with uncanny accuracy."},
		"intrapersonal": {"Inner Compass", "You know yourself deeply and steer by it."},
		"naturalistic":  {"Nature Reader", "You recognize and classify the patterns of the living world."},
	},
}

func superPowerDescription(modelName, traitName string) (string, string) {
	if model, ok := superPowers[modelName]; ok {
		if trait, ok := model[traitName]; ok {
			return trait.SuperPower, trait.Description
		}
	}
	return "Unknown Power", "No description available"
}
