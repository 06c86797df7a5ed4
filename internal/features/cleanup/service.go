package cleanup

import (
	"context"
	"time"

	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/database"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CleanupService runs the scheduled maintenance jobs: presence feed
// compaction and purging of soft-deleted entities past retention. Both jobs
// work on the database directly; they prune history the engine no longer
// needs rather than going through the engine's own write path.
type CleanupService interface {
	CompactPresenceFeeds(ctx context.Context) (int64, error)
	PurgeSoftDeleted(ctx context.Context) (int64, error)
	StartScheduler(ctx context.Context) error
	StopScheduler() error
}

// softDeletable lists every collection whose documents carry a deleted flag.
var softDeletable = []string{"organizations", "teams", "issues", "comments", "labels"}

type CleanupServiceImpl struct {
	db        *database.MongodbDB
	config    *config.Config
	logger    *zap.Logger
	scheduler *cron.Cron
}

func NewCleanupService(db *database.MongodbDB, cfg *config.Config, logger *zap.Logger) CleanupService {
	return &CleanupServiceImpl{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// CompactPresenceFeeds keeps only the newest event per (actor, organization,
// session). Status derivation only ever looks at the newest event of each
// session, so dropping the rest never changes a derived status.
func (s *CleanupServiceImpl) CompactPresenceFeeds(ctx context.Context) (int64, error) {
	coll := s.db.DB.Collection("presence_events")

	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "at", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "actor", Value: "$actor"},
				{Key: "organization", Value: "$organization"},
				{Key: "session", Value: "$session"},
			}},
			{Key: "keep", Value: bson.D{{Key: "$first", Value: "$_id"}}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var keep []any
	for cursor.Next(ctx) {
		var row struct {
			Keep any `bson:"keep"`
		}
		if err := cursor.Decode(&row); err != nil {
			return 0, err
		}
		keep = append(keep, row.Keep)
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}

	res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": keep}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PurgeSoftDeleted removes documents that have carried the deleted flag past
// the retention window.
func (s *CleanupServiceImpl) PurgeSoftDeleted(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.config.PurgeRetentionDays)

	var total int64
	for _, name := range softDeletable {
		res, err := s.db.DB.Collection(name).DeleteMany(ctx, bson.M{
			"deleted":    true,
			"updated_at": bson.M{"$lt": cutoff},
		})
		if err != nil {
			return total, err
		}
		total += res.DeletedCount
	}
	return total, nil
}

func (s *CleanupServiceImpl) StartScheduler(ctx context.Context) error {
	s.scheduler = cron.New()

	if _, err := s.scheduler.AddFunc(s.config.PresenceCompactCron, func() {
		removed, err := s.CompactPresenceFeeds(context.Background())
		if err != nil {
			s.logger.Error("presence compaction failed", zap.Error(err))
			return
		}
		s.logger.Info("presence feeds compacted", zap.Int64("removed", removed))
	}); err != nil {
		return err
	}

	if _, err := s.scheduler.AddFunc("@daily", func() {
		removed, err := s.PurgeSoftDeleted(context.Background())
		if err != nil {
			s.logger.Error("soft-delete purge failed", zap.Error(err))
			return
		}
		s.logger.Info("soft-deleted entities purged", zap.Int64("removed", removed))
	}); err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

func (s *CleanupServiceImpl) StopScheduler() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}
