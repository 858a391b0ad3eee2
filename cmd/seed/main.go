// Command seed populates the generated pool with every catalog visual that
// is not already tracked in some lifecycle collection. It stands in for the
// upstream discovery process during local development and is safe to re-run.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"

	"insightboard/internal/catalog"
	"insightboard/internal/config"
	"insightboard/internal/logging"
	"insightboard/internal/normalize"
	"insightboard/internal/repository"
	"insightboard/pkg/models"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	adhocName := flag.String("name", "", "Seed one ad-hoc visual with this display name instead of the catalog")
	adhocHandle := flag.String("handle", "", "Source handle for the ad-hoc visual")
	adhocQuestion := flag.String("question", "", "Optional question for the ad-hoc visual")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	store, cleanup, err := repository.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer cleanup()
	cat := catalog.Default()

	raw, err := store.Load(ctx, repository.CollectionGenerated)
	if err != nil {
		log.Fatalf("Failed to load generated pool: %v", err)
	}
	generated := normalize.Records(raw, cat)

	if *adhocName != "" {
		if *adhocHandle == "" {
			log.Fatalf("-handle is required with -name; ad-hoc visuals have no catalog entry to fall back to")
		}
		rec := models.Record{
			ID:           uuid.New().String(),
			Name:         *adhocName,
			SourceHandle: *adhocHandle,
			Question:     *adhocQuestion,
			Status:       models.StatusGenerated,
		}
		generated = append(generated, rec)
		if err := store.Save(ctx, repository.CollectionGenerated, generated); err != nil {
			log.Fatalf("Failed to save generated pool: %v", err)
		}
		logger.Info("Seeded ad-hoc visual %s (%s)", rec.Name, rec.ID)
		return
	}

	// Ids already tracked anywhere must not be re-seeded; an approved visual
	// reappearing in generated would defeat the lifecycle.
	tracked := make(map[string]bool)
	for _, name := range []string{
		repository.CollectionGenerated,
		repository.CollectionValid,
		repository.CollectionInvalid,
		repository.CollectionExperimental,
		repository.CollectionApproved,
	} {
		raw, err := store.Load(ctx, name)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", name, err)
		}
		for _, rec := range normalize.Records(raw, cat) {
			tracked[rec.ID] = true
		}
	}

	seeded := 0
	for _, def := range cat.Definitions() {
		if tracked[def.ID] {
			logger.Info("Skipping tracked visual %s", def.ID)
			continue
		}
		generated = append(generated, models.Record{
			ID:           def.ID,
			Name:         def.Name,
			SourceHandle: def.SourceHandle,
			Description:  def.Description,
			Status:       models.StatusGenerated,
		})
		seeded++
	}

	if seeded > 0 {
		if err := store.Save(ctx, repository.CollectionGenerated, generated); err != nil {
			log.Fatalf("Failed to save generated pool: %v", err)
		}
	}
	logger.Info("Seeding complete: %d new, %d already tracked", seeded, len(tracked))
}
