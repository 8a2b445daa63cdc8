package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const retryDelay = 5 * time.Second

// OpenPostgres connects to PostgreSQL with retries and verifies the
// connection before returning it.
func OpenPostgres(cfg *Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < cfg.DBConnectRetries; i++ {
		db, err = openPostgresOnce(cfg)
		if err == nil {
			return db, nil
		}
		log.Warn().Err(err).
			Int("attempt", i+1).
			Int("max", cfg.DBConnectRetries).
			Msg("failed to connect to PostgreSQL")
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("connecting to PostgreSQL after %d attempts: %w", cfg.DBConnectRetries, err)
}

func openPostgresOnce(cfg *Config) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging PostgreSQL database: %w", err)
	}

	log.Info().Str("database", cfg.DBName).Msg("connected to PostgreSQL")
	return db, nil
}

// OpenMongo connects to MongoDB with retries and returns the configured
// database handle plus the client for shutdown.
func OpenMongo(cfg *Config) (*mongo.Database, *mongo.Client, error) {
	var client *mongo.Client
	var err error
	for i := 0; i < cfg.DBConnectRetries; i++ {
		client, err = openMongoOnce(cfg)
		if err == nil {
			log.Info().Str("database", cfg.MongoDBName).Msg("connected to MongoDB")
			return client.Database(cfg.MongoDBName), client, nil
		}
		log.Warn().Err(err).
			Int("attempt", i+1).
			Int("max", cfg.DBConnectRetries).
			Msg("failed to connect to MongoDB")
		time.Sleep(retryDelay)
	}
	return nil, nil, fmt.Errorf("connecting to MongoDB after %d attempts: %w", cfg.DBConnectRetries, err)
}

func openMongoOnce(cfg *Config) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.MongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}
	return client, nil
}

// CloseMongo disconnects the client during shutdown.
func CloseMongo(client *mongo.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("error closing MongoDB connection")
	}
}
