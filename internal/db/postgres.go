package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "studyforge", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Deck{},
		&types.Flashcard{},
		&types.StudySession{},
		&types.UsageEvent{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	// Cascades are enforced by the store: deleting a deck removes its
	// flashcards and study sessions; deleting a user removes everything.
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_user_token_user_id", `
			ALTER TABLE "user_token"
			ADD CONSTRAINT "fk_user_token_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_deck_user_id", `
			ALTER TABLE "deck"
			ADD CONSTRAINT "fk_deck_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_flashcard_deck_id", `
			ALTER TABLE "flashcard"
			ADD CONSTRAINT "fk_flashcard_deck_id"
			FOREIGN KEY ("deck_id") REFERENCES "deck"("id")
			ON DELETE CASCADE`},
		{"fk_study_session_user_id", `
			ALTER TABLE "study_session"
			ADD CONSTRAINT "fk_study_session_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_study_session_deck_id", `
			ALTER TABLE "study_session"
			ADD CONSTRAINT "fk_study_session_deck_id"
			FOREIGN KEY ("deck_id") REFERENCES "deck"("id")
			ON DELETE CASCADE`},
		{"fk_study_session_card_id", `
			ALTER TABLE "study_session"
			ADD CONSTRAINT "fk_study_session_card_id"
			FOREIGN KEY ("card_id") REFERENCES "flashcard"("id")
			ON DELETE CASCADE`},
		{"fk_usage_event_user_id", `
			ALTER TABLE "usage_event"
			ADD CONSTRAINT "fk_usage_event_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		drop := fmt.Sprintf(`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q`, tableForConstraint(c.name), c.name)
		if err := s.db.Exec(drop).Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", c.name, err)
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func tableForConstraint(name string) string {
	switch name {
	case "fk_user_token_user_id":
		return "user_token"
	case "fk_deck_user_id":
		return "deck"
	case "fk_flashcard_deck_id":
		return "flashcard"
	case "fk_usage_event_user_id":
		return "usage_event"
	default:
		return "study_session"
	}
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
