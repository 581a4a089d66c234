// Command seed populates the database with demo or generated data.
package main

import (
	"context"
	"flag"
	"log"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixtures := flag.String("fixtures", "", "Load a YAML fixtures file instead of generating data (\"demo\" for the built-in set)")
	randSeed := flag.Int64("seed", 0, "Seed for reproducible data (0 means random)")
	dryRun := flag.Bool("dry-run", false, "Generate without writing")
	flag.Parse()

	log.Println("Database Seeder")
	if *fixtures != "" {
		log.Printf("Fixtures: %s (ignoring -users and -posts)", *fixtures)
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{Seed: *randSeed, DryRun: *dryRun})

	if *shouldClean && !*dryRun {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *fixtures != "" {
		var fx *seed.Fixtures
		if *fixtures == "demo" {
			fx, err = seed.DemoFixtures()
		} else {
			fx, err = seed.LoadFixturesFile(*fixtures)
		}
		if err != nil {
			log.Fatalf("Invalid fixtures: %v", err)
		}
		if *dryRun {
			log.Printf("Fixtures valid: %d users, %d posts", len(fx.Users), len(fx.Posts))
			return
		}
		if err := s.ApplyFixtures(ctx, fx); err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Println("All done!")
		return
	}

	users, err := s.SeedSocialMesh(ctx, *numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	if _, err := s.SeedEngagement(ctx, users, *numPosts); err != nil {
		log.Fatalf("Engagement seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
	log.Printf("All generated users have the password: %s", seed.DefaultPassword)
}
