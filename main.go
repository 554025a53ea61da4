package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"letterwatch/config"
	"letterwatch/handlers"
	"letterwatch/internal/database"
	"letterwatch/internal/ratelimit"
	"letterwatch/services/analyze"
	"letterwatch/services/letterboxd"
	"letterwatch/services/posters"
	"letterwatch/services/watchlist"
	"letterwatch/utils"
)

func main() {
	settingsPath := flag.String("settings", "data/settings.json", "path to the settings file")
	flag.Parse()

	configManager := config.NewManager(*settingsPath)
	settings, err := configManager.Load()
	if err != nil {
		log.Fatalf("[main] failed to load settings: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   settings.Log.Path,
		MaxSize:    settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
	}))

	db, err := database.NewDB(database.Config{DatabasePath: settings.Cache.DatabasePath})
	if err != nil {
		log.Fatalf("[main] failed to open database: %v", err)
	}
	defer db.Close()

	// One gate for every outbound Letterboxd request, shared by all
	// concurrent analyses.
	gate := ratelimit.NewGate(time.Duration(settings.Letterboxd.RequestDelayMs) * time.Millisecond)

	client := letterboxd.NewClient(letterboxd.Options{
		BaseURL:        settings.Letterboxd.BaseURL,
		UserAgent:      settings.Letterboxd.UserAgent,
		ProfileTimeout: time.Duration(settings.Letterboxd.ProfileTimeoutSecs) * time.Second,
		ListTimeout:    time.Duration(settings.Letterboxd.ListTimeoutSecs) * time.Second,
	}, gate)

	watchlistSvc := watchlist.NewService(client, db.Cache, time.Duration(settings.Cache.UserTTLHours)*time.Hour)
	analyzeSvc := analyze.NewService(settings.Analyze.WatchedScope)
	postersSvc := posters.NewService(client, db.Cache, time.Duration(settings.Cache.PosterTTLDays)*24*time.Hour)

	usersHandler := handlers.NewUsersHandler(client)
	analyzeHandler := handlers.NewAnalyzeHandler(watchlistSvc, analyzeSvc, postersSvc)
	groupsHandler := handlers.NewGroupsHandler(db.Groups, watchlistSvc, analyzeSvc, postersSvc)
	filmsHandler := handlers.NewFilmsHandler(client)

	router := utils.NewRouter()
	router.HandleFunc("/api/users/{username}/validate", usersHandler.Validate).Methods(http.MethodGet)
	router.HandleFunc("/api/analyze", analyzeHandler.Analyze).Methods(http.MethodPost)
	router.HandleFunc("/api/groups", groupsHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/groups", groupsHandler.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/groups/{id}", groupsHandler.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/groups/{id}", groupsHandler.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/api/groups/{id}/analyze", groupsHandler.Analyze).Methods(http.MethodPost)
	router.HandleFunc("/api/films/{slug}", filmsHandler.Details).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", settings.Server.Port)
	log.Printf("[main] letterwatch API listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("[main] server error: %v", err)
	}
}
