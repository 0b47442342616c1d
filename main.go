package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"todoapi/internal/httpserver"
	"todoapi/internal/store"
	"todoapi/internal/token"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.Open(getEnv("DATABASE_DSN", "./data/todos.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	tokens := token.NewService([]byte(getEnv("JWT_SECRET", "dev_secret_change_me")))
	srv := httpserver.New(store.NewUsers(db), store.NewTodos(db), tokens)

	port := getEnv("PORT", "7890")
	log.Info().Str("port", port).Msg("starting todoapi")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
