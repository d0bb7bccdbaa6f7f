// Command manage runs maintenance tasks against the Yatube database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env holds what every subcommand needs. It is opened lazily so --help works
// without a database.
type env struct {
	conn  *gorm.DB
	cache utils.PageCache
	media services.MediaStore
}

func (e *env) groups() *services.GroupService {
	return services.NewGroupService(e.conn, e.cache)
}

func (e *env) users() *services.UserService {
	return services.NewUserService(e.conn, e.media, e.cache)
}

func main() {
	root := newRootCmd(openEnv)
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.Load()
	conn := db.Init(cfg.DatabaseURL)
	media, err := services.NewMediaStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init media store: %w", err)
	}
	return &env{conn: conn, cache: utils.NewPageCache(ctx, cfg), media: media}, nil
}

func newRootCmd(open func(ctx context.Context) (*env, error)) *cobra.Command {
	var e *env

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Yatube maintenance tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			e, err = open(cmd.Context())
			return err
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "seed",
			Short: "Create the default groups plus demo users and posts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db.SeedGroups(e.conn)
				return seedDemo(cmd.Context(), e.conn, e.users(), services.NewPostService(e.conn, e.media, e.cache))
			},
		},
		&cobra.Command{
			Use:   "creategroup <slug> <title> [description...]",
			Short: "Create a group",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				group, err := e.groups().Create(cmd.Context(), args[1], args[0], strings.Join(args[2:], " "))
				if err != nil {
					return err
				}
				log.Printf("Created group %s (%d)", group.Slug, group.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "deletegroup <slug>",
			Short: "Delete a group, its posts stay without a group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.groups().Delete(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "deleteuser <username>",
			Short: "Delete a user with their posts, comments and follows",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				users := e.users()
				user, err := users.GetByUsername(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return users.Delete(cmd.Context(), user.ID)
			},
		},
	)
	return root
}

// seedDemo creates two demo authors with a few posts and a follow between them.
func seedDemo(ctx context.Context, conn *gorm.DB, users *services.UserService, posts *services.PostService) error {
	if _, err := users.GetByUsername(ctx, "leo"); err == nil {
		log.Println("Demo users already seeded, skipping")
		return nil
	}

	var code models.Group
	if err := conn.WithContext(ctx).Where("slug = ?", "code").First(&code).Error; err != nil {
		return fmt.Errorf("seed groups first: %w", err)
	}

	authors := []services.SignupForm{
		{Username: "leo", Password: "demo-password", FirstName: "Лев", LastName: "Толстой"},
		{Username: "fedor", Password: "demo-password", FirstName: "Фёдор", LastName: "Достоевский"},
	}
	created := make([]*models.User, 0, len(authors))
	for i, form := range authors {
		user, err := users.Register(ctx, form)
		if err != nil {
			return err
		}
		created = append(created, user)

		for n := 1; n <= 3; n++ {
			post := services.PostForm{Text: fmt.Sprintf("Запись %d от %s", n, user.FullName())}
			if i == 0 {
				post.GroupID = &code.ID
			}
			if _, err := posts.Create(ctx, user.ID, post); err != nil {
				return err
			}
		}
	}

	// fedor follows leo
	follows := services.NewFollowService(conn)
	if _, err := follows.Follow(ctx, created[1].ID, created[0].Username); err != nil {
		return err
	}
	log.Println("Demo users and posts created successfully")
	return nil
}
