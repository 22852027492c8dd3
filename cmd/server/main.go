package main

import (
	"context"
	"net/http"

	"geotrek_core/internal/config"
	"geotrek_core/internal/controllers"
	"geotrek_core/internal/dem"
	"geotrek_core/internal/events"
	"geotrek_core/internal/logger"
	"geotrek_core/internal/routes"
	"geotrek_core/internal/store"
	"geotrek_core/internal/topology"

	"github.com/sirupsen/logrus"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize structured logging to file
	if err := logger.Setup(settings.LogFile, settings.LogLevel); err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}

	// Connect to the database
	db, err := config.InitDB(settings)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	if err := config.ValidateSRID(db, settings.SRID); err != nil {
		logrus.WithError(err).Fatal("Unusable SRID")
	}

	cfg := store.Config{
		Network: topology.Options{
			SnapDistance:    settings.SnapDistance,
			MaxCascadeDepth: settings.MaxCascadeDepth,
			SRID:            settings.SRID,
		},
		DEMStep: settings.DEMStep,
		Delete:  store.DeletePolicy(settings.DeletePolicy),
	}
	if settings.DEMFile != "" {
		grid, err := dem.LoadFile(settings.DEMFile)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to load DEM")
		}
		cfg.DEM = grid
	}

	// Cascade events reach the websocket hub directly, or through
	// LISTEN/NOTIFY so every instance sharing the database sees them.
	var pub events.Publisher = controllers.Hub()
	if settings.CascadeEvents == "postgres" {
		pub = events.NewNotifier(db, settings.NotifyChannel)
		if err := events.Listen(context.Background(), settings.DB.DSN(), settings.NotifyChannel, controllers.Hub()); err != nil {
			logrus.WithError(err).Fatal("Failed to listen for cascade events")
		}
	}

	controllers.Setup(store.New(db, cfg, pub))

	// Setup Gin router
	r := routes.SetupRouter()

	logrus.WithField("addr", settings.HTTPAddr).Info("Server running")
	logrus.Fatal(http.ListenAndServe(settings.HTTPAddr, r))
}
