package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"

	"fitgym/nutrition-app/internal/config"
	"fitgym/nutrition-app/internal/domain"
	"fitgym/nutrition-app/internal/repository"
	"fitgym/nutrition-app/internal/repository/mongo"
	"fitgym/nutrition-app/internal/service"
	"fitgym/nutrition-app/internal/storage"
)

// app bundles the service stack planctl operates through. Commands go through
// the same services as the API so plan rules hold no matter who makes a change.
type app struct {
	client *driver.Client

	planRepo   repository.PlanRepository
	followRepo repository.FollowRepository

	planService    service.PlanService
	contentService service.ContentService
}

// newApp loads config and wires real implementations of all dependencies.
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	client, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	db := client.Database(cfg.Database.Name)

	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		_ = mongo.DisconnectDB(client)
		return nil, fmt.Errorf("initialize S3 storage: %w", err)
	}

	planRepo := mongo.NewMongoPlanRepository(db)
	followRepo := mongo.NewMongoFollowRepository(db)
	mealDayRepo := mongo.NewMongoMealDayRepository(db)

	return &app{
		client:         client,
		planRepo:       planRepo,
		followRepo:     followRepo,
		planService:    service.NewPlanService(planRepo, followRepo, mealDayRepo, fileStorage),
		contentService: service.NewContentService(mealDayRepo, planRepo, followRepo),
	}, nil
}

func (a *app) Close() {
	if err := mongo.DisconnectDB(a.client); err != nil {
		PrintWarning(fmt.Sprintf("MongoDB disconnect failed: %v", err))
	}
}

// operatorCaller builds the identity lifecycle calls run under. Plan rules are
// enforced per creator; planctl holds database credentials, so it acts as the
// plan's own creator.
func operatorCaller(p *domain.Plan) domain.CallerContext {
	creatorID := p.CreatorID
	return domain.CallerContext{
		GymID:  p.GymID,
		UserID: &creatorID,
		Today:  todayUTC(),
	}
}

func todayUTC() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func parseObjectID(arg, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(arg)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s %q: expected a 24-character hex id", what, arg)
	}
	return id, nil
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
