package main

import (
	"context"

	"github.com/garden-co/locality/internal/config"
	"github.com/garden-co/locality/internal/database"
	"github.com/garden-co/locality/internal/features/audit"
	"github.com/garden-co/locality/internal/features/comment"
	"github.com/garden-co/locality/internal/features/group"
	"github.com/garden-co/locality/internal/features/issue"
	"github.com/garden-co/locality/internal/features/organization"
	"github.com/garden-co/locality/internal/features/presence"
	"github.com/garden-co/locality/internal/features/team"
	"github.com/garden-co/locality/internal/features/user"
	"github.com/garden-co/locality/internal/logger"
	"github.com/garden-co/locality/internal/store"
	"github.com/garden-co/locality/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Seed populates a fresh database with a demo workspace: one account, the
// Acme organization with its Dev team, a handful of issues with a discussion
// thread, and an open invite link for a second browser to join with.
func Seed(
	lc fx.Lifecycle,
	users user.UserService,
	orgs organization.OrganizationService,
	teams team.TeamService,
	issues issue.IssueService,
	comments comment.CommentService,
	groups group.GroupService,
	presenceService presence.PresenceService,
	cfg *config.Config,
	log *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						log.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx := context.Background()
				log.Info("Seeding demo data...")

				profile, err := users.Register(ctx, "Demo Admin", "demo@example.com", "demo-password")
				if err != nil {
					log.Error("Failed to register demo account", zap.Error(err))
					return
				}
				admin := profile.ID

				org, err := orgs.CreateOrganization(ctx, admin, "Acme")
				if err != nil {
					log.Error("Failed to create organization", zap.Error(err))
					return
				}

				seeded, err := teams.ListForMember(ctx, admin, org.ID)
				if err != nil || len(seeded) == 0 {
					log.Error("Organization has no seeded team", zap.Error(err))
					return
				}
				dev := seeded[0]

				inputs := []issue.CreateIssueInput{
					{Team: dev.ID, Title: "Set up the deploy pipeline", Status: issue.StatusInProgress, Priority: issue.PriorityHigh},
					{Team: dev.ID, Title: "Write onboarding docs", Status: issue.StatusToDo, Priority: issue.PriorityMedium},
					{Team: dev.ID, Title: "Investigate flaky websocket reconnects", Status: issue.StatusBacklog, Priority: issue.PriorityUrgent},
				}
				var first *issue.Issue
				for _, in := range inputs {
					created, err := issues.CreateIssue(ctx, admin, in)
					if err != nil {
						log.Error("Failed to create issue", zap.String("title", in.Title), zap.Error(err))
						return
					}
					if first == nil {
						first = created
					}
					log.Info("Created issue", zap.String("identifier", created.Identifier))
				}

				sub, err := issues.CreateIssue(ctx, admin, issue.CreateIssueInput{
					Team:        dev.ID,
					Title:       "Document rollback procedure",
					Status:      issue.StatusToDo,
					Priority:    issue.PriorityLow,
					ParentIssue: &first.ID,
				})
				if err != nil {
					log.Error("Failed to create sub-issue", zap.Error(err))
					return
				}
				log.Info("Created sub-issue", zap.String("identifier", sub.Identifier))

				root, err := comments.AddComment(ctx, admin, first.ID, "Staging credentials are in the shared vault.", nil)
				if err != nil {
					log.Error("Failed to create comment", zap.Error(err))
					return
				}
				if _, err := comments.AddComment(ctx, admin, first.ID, "Rotated them this morning, use the new set.", &root.ID); err != nil {
					log.Error("Failed to create reply", zap.Error(err))
					return
				}
				if _, err := comments.ToggleIssueReaction(ctx, admin, first.ID, comment.ReactionThumbUp, true); err != nil {
					log.Error("Failed to react", zap.Error(err))
					return
				}

				if err := presenceService.Append(ctx, admin, org.ID, "seed", presence.StatusOnline); err != nil {
					log.Error("Failed to record presence", zap.Error(err))
					return
				}

				secret, err := groups.IssueInvite(ctx, admin, org.OwnerGroup, group.RoleWriter, false)
				if err != nil {
					log.Error("Failed to issue invite", zap.Error(err))
					return
				}
				link := group.EncodeInviteLink(cfg.BaseURL, group.InviteEntityOrganization, org.ID, secret)

				log.Info("Demo data ready",
					zap.String("organization", org.Slug),
					zap.String("team", dev.Slug),
					zap.String("login", "demo@example.com / demo-password"),
					zap.String("invite", link))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			store.NewMongoStore,

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

			func(s organization.OrganizationService) user.DefaultWorkspaceCreator { return s },
			func(s team.TeamService) organization.TeamSeeder { return s },
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			Seed,
		),
	)

	app.Run()
}
