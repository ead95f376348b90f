package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"

	"eternal/internal/cache"
	"eternal/internal/config"
	"eternal/internal/model"
	"eternal/internal/repository"
	"eternal/internal/service"
)

// demoAnswers is a complete interview used when no answers file is given
var demoAnswers = []string{
	"Ananya Rao",
	"12-07-1990",
	"B+",
	"05:40 AM",
	"Female",
	"Architect",
	"Green",
	"165 cm",
	"58 kg",
	"I sleep 7-8 hours, usually by 11pm",
	"I do yoga and walk every morning",
	"Sometimes",
	"No",
	"Mostly home cooked vegetarian food",
	"About 2.5 liters",
	"Medium, work deadlines",
	"Yes, my partner and friends support me",
	"Mostly, I feel my work has meaning",
}

// Seeds a report for one owner so the report screens can be exercised
// without walking through the interview.
func main() {
	owner := flag.String("owner", "user_demo", "owner id to store the report under")
	answersFile := flag.String("answers", "", "YAML file with a list of interview answers")
	palm := flag.Bool("palm", true, "treat the palm image as validated")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	answers := demoAnswers
	if *answersFile != "" {
		data, err := os.ReadFile(*answersFile)
		if err != nil {
			log.Fatalf("Failed to read answers: %v", err)
		}
		if err := yaml.Unmarshal(data, &answers); err != nil {
			log.Fatalf("Failed to parse answers: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var repo repository.ReportRepo
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		sqliteRepo, err := repository.NewSQLiteReportRepo(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(ctx)
		repo = repository.NewReportRepo(client.Database(cfg.MongoDB))
	}

	// save through the report cache so a stale cached copy is replaced
	var reportCache cache.ReportCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis unreachable (%v), report cache not refreshed", err)
	} else {
		reportCache = cache.NewReportCache(rdb, cfg.ReportCacheTTL)
	}
	store := service.NewCachedReportStore(repo, reportCache)

	synth := service.NewReportSynthesizer(service.NewAIClient(config.DefaultAIConfig(), nil))
	report := synth.Synthesize(ctx, service.SynthesisInput{
		OwnerID:        *owner,
		Answers:        answers,
		ImageValidated: *palm,
	})

	if err := store.Save(ctx, report); err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}

	fmt.Printf("Stored %s report for '%s' (overall %d, %s)\n",
		report.Source, *owner, report.OverallScore(), model.ScoreLabel(report.OverallScore()))
	for _, s := range report.Sections.All() {
		fmt.Printf("  %-36s %3d\n", s.Title, s.Score)
	}
}
