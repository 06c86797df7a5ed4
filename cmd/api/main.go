package main

import (
	"context"
	"fmt"
	"log"

	common_api "github.com/garden-co/locality/internal/common/api"
	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/database"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/internal/features/cleanup"
	"github.com/garden-co/locality/internal/features/comment"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/issue"
	"github.com/garden-co/locality/internal/features/organization"
	"github.com/garden-co/locality/internal/features/presence"
	"github.com/garden-co/locality/internal/features/system"
	"github.com/garden-co/locality/internal/features/team"
	"github.com/garden-co/locality/internal/features/user"
	"github.com/garden-co/locality/internal/logger"
	"github.com/garden-co/locality/internal/middleware"
	"github.com/garden-co/locality/internal/store"
	"github.com/garden-co/locality/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// entityResolver maps invite links to the owning group of the referenced
// organization or team.
type entityResolver struct {
	orgs  organization.OrganizationService
	teams team.TeamService
}

func (r *entityResolver) OwnerGroup(ctx context.Context, entityType string, entityID primitive.ObjectID) (primitive.ObjectID, error) {
	switch entityType {
	case group.InviteEntityOrganization:
		return r.orgs.OwnerGroupOf(ctx, entityID)
	case group.InviteEntityTeam:
		return r.teams.OwnerGroupOf(ctx, entityID)
	}
	return primitive.NilObjectID, fmt.Errorf("unknown entity type %q", entityType)
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database & Store
			database.NewDatabase,
			store.NewMongoStore,

			// Initialize Repository
			audit.NewAuditRepository,
			user.NewUserRepository,
			group.NewGroupRepository,
			organization.NewOrganizationRepository,
			team.NewTeamRepository,
			issue.NewIssueRepository,
			comment.NewCommentRepository,
			presence.NewPresenceRepository,

			audit.NewAuditService,
			group.NewGroupService,
			user.NewUserService,
			organization.NewOrganizationService,
			team.NewTeamService,
			issue.NewIssueService,
			comment.NewCommentService,
			presence.NewHub,
			presence.NewPresenceService,
			cleanup.NewCleanupService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s organization.OrganizationService) user.DefaultWorkspaceCreator { return s },
			func(s team.TeamService) organization.TeamSeeder { return s },
			func(orgs organization.OrganizationService, teams team.TeamService) group.EntityResolver {
				return &entityResolver{orgs: orgs, teams: teams}
			},

			// Initialize Controller
			user.NewUserController,
			group.NewGroupController,
			organization.NewOrganizationController,
			team.NewTeamController,
			issue.NewIssueController,
			comment.NewCommentController,
			presence.NewPresenceController,
			audit.NewAuditController,

			// Initialize API Routes
			AsRoute(system.NewHealthApi),
			AsRoute(user.NewUserApi),
			AsRoute(group.NewGroupApi),
			AsRoute(organization.NewOrganizationApi),
			AsRoute(team.NewTeamApi),
			AsRoute(issue.NewIssueApi),
			AsRoute(comment.NewCommentApi),
			AsRoute(presence.NewPresenceApi),
			AsRoute(audit.NewAuditApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, cleanupService cleanup.CleanupService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return cleanupService.StartScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return cleanupService.StopScheduler()
					},
				})
			},
		),
	)

	app.Run()
}
