// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the sentinel document (seed-doc-pitch-deck) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"startup-dataroom/backend/internal/config"
	"startup-dataroom/backend/internal/db"
	documentdomain "startup-dataroom/backend/internal/document/domain"
	documentrepo "startup-dataroom/backend/internal/document/repository"
	sessiondomain "startup-dataroom/backend/internal/sharesession/domain"
	sessionrepo "startup-dataroom/backend/internal/sharesession/repository"
)

const (
	seedDocPitchID  = "seed-doc-pitch-deck"
	seedDocCapID    = "seed-doc-cap-table"
	seedDocFinID    = "seed-doc-financials"
	seedDocBoardID  = "seed-doc-board-minutes"
	seedSessionID   = "seed-session-series-a"
	seedSessionDays = 30
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	documents := documentrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)

	existing, err := documents.GetByID(ctx, seedDocPitchID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (seed-doc-pitch-deck exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()
	docs := []*documentdomain.Document{
		{
			ID:             seedDocPitchID,
			Name:           "Pitch Deck",
			Category:       "overview",
			Visibility:     documentdomain.VisibilityPublic,
			Representative: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             seedDocCapID,
			Name:           "Cap Table",
			Category:       "financial",
			Visibility:     documentdomain.VisibilityInvestors,
			Representative: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:         seedDocFinID,
			Name:       "Financial Model FY26",
			Category:   "financial",
			Visibility: documentdomain.VisibilityTeam,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         seedDocBoardID,
			Name:       "Board Minutes 2026-07",
			Category:   "legal",
			Visibility: documentdomain.VisibilityPrivate,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	for _, d := range docs {
		if err := documents.Create(ctx, d); err != nil {
			log.Fatalf("create document %s: %v", d.ID, err)
		}
	}

	expires := now.AddDate(0, 0, seedSessionDays)
	session := &sessiondomain.Session{
		ID:          seedSessionID,
		Name:        "Series A data room",
		DocumentIDs: []string{seedDocPitchID, seedDocCapID, seedDocFinID},
		Link:        cfg.BaseURL + "/share/" + seedSessionID,
		Active:      true,
		NDARequired: true,
		ExpiresAt:   &expires,
		CreatedAt:   now,
	}
	if err := sessions.Create(ctx, session); err != nil {
		log.Fatalf("create session: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Share link: %s\n", session.Link)
}
