// internal/game/questions.go
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/botanybattle/server/internal/models"
)

// speciesList is the built-in question bank. Production deployments swap in
// a provider backed by the plant-data service; this keeps the server
// runnable and the tests hermetic.
var speciesList = []string{
	"Monstera deliciosa",
	"Ficus lyrata",
	"Aloe vera",
	"Echeveria elegans",
	"Sansevieria trifasciata",
	"Epipremnum aureum",
	"Calathea orbifolia",
	"Pilea peperomioides",
	"Dionaea muscipula",
	"Nepenthes alata",
	"Tillandsia ionantha",
	"Begonia maculata",
	"Oxalis triangularis",
	"Crassula ovata",
	"Zamioculcas zamiifolia",
	"Maranta leuconeura",
}

// StaticQuestionProvider deals four-option identification questions from
// the built-in species bank. The mutex serializes draws from the shared rng,
// which is not safe for the concurrent round advances that call it.
type StaticQuestionProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewStaticQuestionProvider() *StaticQuestionProvider {
	return &StaticQuestionProvider{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *StaticQuestionProvider) NextQuestion(_ context.Context, sessionID uuid.UUID, round int) (*models.RoundQuestion, error) {
	p.mu.Lock()
	perm := p.rng.Perm(len(speciesList))
	correctIdx := p.rng.Intn(4)
	p.mu.Unlock()

	options := make([]string, 4)
	for i := 0; i < 4; i++ {
		options[i] = speciesList[perm[i]]
	}
	correct := options[correctIdx]

	return &models.RoundQuestion{
		QuestionID:    fmt.Sprintf("%s-r%d", sessionID, round),
		Options:       options,
		CorrectOption: correct,
		StartedAt:     time.Now(),
	}, nil
}
