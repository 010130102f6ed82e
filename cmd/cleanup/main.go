package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"firelater-migrate/internal/config"
	"firelater-migrate/internal/database"
	"firelater-migrate/internal/features/migration"
	"firelater-migrate/internal/importer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Maintenance tool: removes uploaded source files older than the
// retention window and prunes terminal migration jobs past it.
func main() {
	retentionDays := flag.Int("days", 30, "retention window in days")
	dryRun := flag.Bool("dry-run", false, "report what would be removed without deleting")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cutoff := time.Now().AddDate(0, 0, -*retentionDays)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	jobs := client.Database(cfg.DBName).Collection("migration_jobs")

	filter := bson.M{
		"status": bson.M{"$in": []migration.JobStatus{
			migration.StatusCompleted,
			migration.StatusFailed,
			migration.StatusCancelled,
			migration.StatusRolledBack,
		}},
		"updated_at": bson.M{"$lt": cutoff},
	}

	staleIDs, err := staleJobIDs(ctx, jobs, filter)
	if err != nil {
		log.Fatalf("Failed to list stale jobs: %v", err)
	}

	if *dryRun {
		log.Printf("Would remove %d terminal jobs older than %s", len(staleIDs), cutoff.Format("2006-01-02"))
	} else {
		result, err := jobs.DeleteMany(ctx, filter)
		if err != nil {
			log.Fatalf("Failed to remove stale jobs: %v", err)
		}
		log.Printf("Removed %d terminal jobs older than %s", result.DeletedCount, cutoff.Format("2006-01-02"))
	}

	// Pruned jobs can never be rolled back, so their provenance rows in
	// the target database go with them.
	if len(staleIDs) > 0 {
		target, err := database.OpenTarget(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to target database: %v", err)
		}
		defer target.DB.Close()

		if *dryRun {
			log.Printf("Would purge provenance for %d jobs", len(staleIDs))
		} else {
			purged, err := importer.PurgeProvenance(ctx, target, staleIDs)
			if err != nil {
				log.Fatalf("Failed to purge provenance: %v", err)
			}
			log.Printf("Purged %d provenance rows", purged)
		}
	}

	removed := 0
	entries, err := os.ReadDir(cfg.FSPath)
	if err != nil {
		log.Fatalf("Failed to read upload directory %s: %v", cfg.FSPath, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(cfg.FSPath, entry.Name())
		if *dryRun {
			log.Printf("Would remove stale upload %s", path)
			removed++
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	log.Printf("Stale uploads handled: %d", removed)

	log.Println("Cleanup complete.")
}

func staleJobIDs(ctx context.Context, jobs *mongo.Collection, filter bson.M) ([]string, error) {
	cursor, err := jobs.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}
