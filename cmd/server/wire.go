//go:build wireinject
// +build wireinject

package main

import (
	"blood_connect_backend/internal/app"
	"blood_connect_backend/internal/auth"
	"blood_connect_backend/internal/config"
	"blood_connect_backend/internal/donor"
	"blood_connect_backend/internal/platform/database"
	"blood_connect_backend/internal/platform/logger"
	"blood_connect_backend/internal/shared"

	"github.com/google/wire"
	"gorm.io/gorm"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDatabase,

		// Token Service
		auth.NewJWTService,

		// Donor module
		donor.NewGORMRepository,
		donor.NewService,
		wire.Bind(new(shared.DonorProvider), new(*donor.Service)),
		donor.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

// provideDatabase connects to the database, runs migrations, and hands Wire a
// cleanup that closes the connection on shutdown.
func provideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		database.CloseGORMDB(db)
		return nil, nil, err
	}
	return db, func() { database.CloseGORMDB(db) }, nil
}
