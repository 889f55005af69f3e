package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/service"
)

func main() {
	var file string
	var dryRun bool
	flag.StringVar(&file, "file", "", "JSON file with an array of question records")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate only, write nothing")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if file == "" {
		fmt.Println("Usage: ingest -file questions.json [-dry-run]")
		os.Exit(2)
	}

	records, err := readRecords(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read records")
	}
	log.Info().Int("records", len(records)).Str("file", file).Msg("Loaded ingest file")

	if dryRun {
		report := validateOnly(records)
		printReport(report)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	questionRepo := repository.NewQuestionRepository(pool)
	questionService := service.NewQuestionService(questionRepo, repository.NewCorpusCache(rdb), cfg.CorpusCacheTTL, log)
	taxonomyService := service.NewTaxonomyService(repository.NewTaxonomyRepository(pool), questionService, log)
	ingestService := service.NewIngestService(questionRepo, taxonomyService, questionService, log)

	report, err := ingestService.Ingest(ctx, records)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Ingest failed")
	}

	total, err := questionRepo.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not count stored questions")
		return
	}
	fmt.Printf("Questions stored: %d\n", total)
}

// readRecords accepts either a bare JSON array or an object with a
// "questions" array.
func readRecords(path string) ([]model.IngestRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)

	var records []model.IngestRecord
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Questions []model.IngestRecord `json:"questions"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return wrapped.Questions, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func validateOnly(records []model.IngestRecord) *service.IngestReport {
	questions, rejected := service.ValidateRecords(records)
	report := &service.IngestReport{
		Received: len(records),
		Valid:    len(questions),
		Rejected: rejected,
	}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.QuestionID] {
			report.Duplicates++
		}
		seen[q.QuestionID] = true
	}
	return report
}

func printReport(r *service.IngestReport) {
	fmt.Printf("Received: %d  Valid: %d  Inserted: %d  Duplicates: %d  Rejected: %d\n",
		r.Received, r.Valid, r.Inserted, r.Duplicates, len(r.Rejected))
	for _, rej := range r.Rejected {
		fmt.Printf("  record %d:\n", rej.Index)
		for field, msg := range rej.Fields {
			fmt.Printf("    %s: %s\n", field, msg)
		}
	}
}
