// Package database - Handles all interaction with ArangoDB
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = InitLogger() // setup the logger

// DBConnection is the structure that defined the database engine and collections
type DBConnection struct {
	Collections map[string]arangodb.Collection
	Database    arangodb.Database
}

// Define a struct to hold the index definition
type indexConfig struct {
	Collection string
	IdxName    string
	IdxFields  []string
	Unique     bool
	Sparse     bool
}

var initDone = false          // has the data been initialized
var dbConnection DBConnection // database connection definition

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// InitLogger sets up the Zap Logger to log to the console in a human readable format
func InitLogger() *zap.Logger {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, _ := prodConfig.Build()
	return logger
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// InitializeDatabase is the function for connecting to the db engine, creating the database and collections
func InitializeDatabase() DBConnection {
	const initialInterval = 10 * time.Second
	const maxInterval = 2 * time.Minute

	var db arangodb.Database
	var collections map[string]arangodb.Collection
	const databaseName = "cloudmend"

	ctx := context.Background()

	if initDone {
		return dbConnection
	}

	dbhost := GetEnvDefault("ARANGO_HOST", "localhost")
	dbport := GetEnvDefault("ARANGO_PORT", "8529")
	dbuser := GetEnvDefault("ARANGO_USER", "root")
	dbpass := GetEnvDefault("ARANGO_PASS", "mypassword")
	dburl := GetEnvDefault("ARANGO_URL", "http://"+dbhost+":"+dbport)

	var client arangodb.Client

	//
	// Database connection with backoff retry
	//

	// Configure exponential backoff
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // Set to 0 for indefinite retries

	// Retry logic
	err := backoff.RetryNotify(func() error {
		fmt.Println("Attempting to connect to ArangoDB")
		endpoint := connection.NewRoundRobinEndpoints([]string{dburl})
		conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, dbuser, dbpass))

		client = arangodb.NewClient(conn)

		// Ask the version of the server
		versionInfo, err := client.Version(context.Background())
		if err != nil {
			return err
		}

		logger.Sugar().Infof("Database has version '%s' and license '%s'\n", versionInfo.Version, versionInfo.License)
		return nil

	}, bo, func(err error, _ time.Duration) {
		fmt.Printf("Retrying connection to ArangoDB: %v\n", err)
	})

	if err != nil {
		logger.Sugar().Fatalf("Backoff Error %v\n", err)
	}

	//
	// Database creation
	//

	exists := false
	dblist, _ := client.Databases(ctx)

	for _, dbinfo := range dblist {
		if dbinfo.Name() == databaseName {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		if db, err = client.GetDatabase(ctx, databaseName, &options); err != nil {
			logger.Sugar().Fatalf("Failed to get Database: %v", err)
		}
	} else {
		if db, err = client.CreateDatabase(ctx, databaseName, nil); err != nil {
			logger.Sugar().Fatalf("Failed to create Database: %v", err)
		}
	}

	//
	// Collection creation for document storage
	//

	collections = make(map[string]arangodb.Collection)
	collectionNames := []string{"finding", "asset", "remediation_plan", "execution"}

	for _, collectionName := range collectionNames {
		var col arangodb.Collection

		exists, _ = db.CollectionExists(ctx, collectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, collectionName, &options); err != nil {
				logger.Sugar().Fatalf("Failed to use collection: %v", err)
			}
		} else {
			if col, err = db.CreateCollectionV2(ctx, collectionName, nil); err != nil {
				logger.Sugar().Fatalf("Failed to create collection: %v", err)
			}
		}

		collections[collectionName] = col
	}

	//
	// Edge collection creation
	//

	edgeCollectionNames := []string{"finding2asset", "finding2plan", "asset2asset"}

	for _, edgeCollectionName := range edgeCollectionNames {
		var col arangodb.Collection

		exists, _ = db.CollectionExists(ctx, edgeCollectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, edgeCollectionName, &options); err != nil {
				logger.Sugar().Fatalf("Failed to use edge collection: %v", err)
			}
		} else {
			edgeType := arangodb.CollectionTypeEdge
			if col, err = db.CreateCollectionV2(ctx, edgeCollectionName, &arangodb.CreateCollectionPropertiesV2{
				Type: &edgeType,
			}); err != nil {
				logger.Sugar().Fatalf("Failed to create edge collection: %v", err)
			}
		}

		collections[edgeCollectionName] = col
	}

	//
	// Index creation
	//

	idxList := []indexConfig{
		// Finding collection indexes - priority listing sorts on risk_score,
		// ingestion dedupes on finding_id
		{Collection: "finding", IdxName: "finding_id_unique", IdxFields: []string{"finding_id"}, Unique: true},
		{Collection: "finding", IdxName: "finding_severity", IdxFields: []string{"severity"}},
		{Collection: "finding", IdxName: "finding_status", IdxFields: []string{"status"}},
		{Collection: "finding", IdxName: "finding_risk_score", IdxFields: []string{"risk_score"}},
		{Collection: "finding", IdxName: "finding_resource_arn", IdxFields: []string{"resource.arn"}},
		{Collection: "finding", IdxName: "finding_detected_at", IdxFields: []string{"detected_at"}},
		{Collection: "finding", IdxName: "finding_priority_sort", IdxFields: []string{"status", "risk_score", "detected_at"}},

		// Asset collection indexes - one document per ARN
		{Collection: "asset", IdxName: "asset_arn_unique", IdxFields: []string{"arn"}, Unique: true},
		{Collection: "asset", IdxName: "asset_criticality", IdxFields: []string{"criticality"}},
		{Collection: "asset", IdxName: "asset_environment", IdxFields: []string{"environment"}},

		// Remediation plan indexes
		{Collection: "remediation_plan", IdxName: "plan_finding_id", IdxFields: []string{"finding_id"}},
		{Collection: "remediation_plan", IdxName: "plan_created_at", IdxFields: []string{"created_at"}},

		// Execution history indexes for dashboards and per-plan lookups
		{Collection: "execution", IdxName: "execution_id_unique", IdxFields: []string{"execution_id"}, Unique: true},
		{Collection: "execution", IdxName: "execution_plan_id", IdxFields: []string{"plan_id"}},
		{Collection: "execution", IdxName: "execution_status", IdxFields: []string{"status"}},
		{Collection: "execution", IdxName: "execution_start_time", IdxFields: []string{"start_time"}},
		{Collection: "execution", IdxName: "execution_status_time", IdxFields: []string{"status", "start_time"}},

		// Edge collection indexes for blast-radius traversals
		{Collection: "finding2asset", IdxName: "finding2asset_from", IdxFields: []string{"_from"}},
		{Collection: "finding2asset", IdxName: "finding2asset_to", IdxFields: []string{"_to"}},
		{Collection: "finding2plan", IdxName: "finding2plan_from", IdxFields: []string{"_from"}},
		{Collection: "finding2plan", IdxName: "finding2plan_to", IdxFields: []string{"_to"}},
		{Collection: "asset2asset", IdxName: "asset2asset_from", IdxFields: []string{"_from"}},
		{Collection: "asset2asset", IdxName: "asset2asset_to", IdxFields: []string{"_to"}},
	}

	for _, idx := range idxList {
		found := false

		if indexes, err := collections[idx.Collection].Indexes(ctx); err == nil {
			for _, index := range indexes {
				if idx.IdxName == index.Name {
					found = true
					break
				}
			}
		}

		if !found {
			unique := idx.Unique
			sparse := idx.Sparse
			indexOptions := arangodb.CreatePersistentIndexOptions{
				Unique: &unique,
				Sparse: &sparse,
				Name:   idx.IdxName,
			}

			_, _, err = collections[idx.Collection].EnsurePersistentIndex(ctx, idx.IdxFields, &indexOptions)
			if err != nil {
				logger.Sugar().Fatalln("Error creating index:", err)
			} else {
				logger.Sugar().Infof("Created index: %s on %s", idx.IdxName, idx.Collection)
			}
		}
	}

	initDone = true

	dbConnection = DBConnection{
		Database:    db,
		Collections: collections,
	}

	logger.Sugar().Infof("Database initialization complete")

	return dbConnection
}
