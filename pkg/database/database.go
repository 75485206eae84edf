// Package database opens and verifies connections to the stores the
// pipeline writes to: the SQL destination and the watermark backends.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/BartekS5/odoo-etl/pkg/logger"
)

const pingTimeout = 5 * time.Second

// ConnectSQL opens driver ("postgres", "sqlserver" or "sqlite") and pings it.
func ConnectSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY between the DDL and load transactions
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to %s database (ping failed): %w", driver, err)
	}

	logger.Infof("Successfully connected to %s destination.", driver)
	return db, nil
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error creating MongoDB client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), pingTimeout)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)

		return nil, fmt.Errorf("error connecting to MongoDB (ping failed): %w", err)
	}

	logger.Info("Successfully connected to MongoDB.")
	return client, nil
}

func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to Redis at %s (ping failed): %w", addr, err)
	}

	logger.Infof("Successfully connected to Redis at %s.", addr)
	return client, nil
}
