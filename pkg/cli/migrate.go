package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docket-labs/docket/pkg/cli/config"
	"github.com/docket-labs/docket/pkg/utils/logging"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := repoCfg.FirestoreFlags()
	flags = append(flags, &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Preview changes without applying",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			projectID := repoCfg.ProjectID()
			databaseID := repoCfg.DatabaseID()
			if projectID == "" {
				return goerr.New("firestore-project-id is required")
			}

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"dryRun", dryRun)

			indexConfig := getIndexConfig()

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
			} else {
				logger.Info("Applying migrations")
				if err := client.Migrate(ctx, indexConfig); err != nil {
					return goerr.Wrap(err, "failed to apply migrations")
				}
				logger.Info("Migrations applied successfully")
			}

			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "messages",
				Indexes: []fireconf.Index{
					// ListByCase: case_id ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "case_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
					// LatestVisible: case_id ASC, deleted ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "case_id", Order: fireconf.OrderAscending},
							{Path: "deleted", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: "notifications",
				Indexes: []fireconf.Index{
					// ListByRecipient: recipient_id ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "recipient_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
					// UnreadCount: recipient_id ASC, read ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "recipient_id", Order: fireconf.OrderAscending},
							{Path: "read", Order: fireconf.OrderAscending},
						},
					},
				},
			},
			{
				Name: "timeline",
				Indexes: []fireconf.Index{
					// ListByCase: case_id ASC, created_at ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "case_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
