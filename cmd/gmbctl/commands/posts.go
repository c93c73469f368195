package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/views"
	"github.com/spf13/cobra"
)

var (
	// Post flags
	postLocation int64
	postContent  string
	postTopic    string
	postType     string
	postUseAI    bool
	postTitle    string
	postMediaURL string
	postYes      bool
)

// postsCmd groups the post commands
var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"post"},
	Short:   "Manage posts",
	Long: `Manage Google Business Profile posts.

Subcommands:
  list     - List posts
  get      - Show one post
  create   - Write a post, or generate one with --ai
  update   - Edit a post
  delete   - Delete a post
  publish  - Queue a post for publishing`,
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Long: `List posts.

Examples:
  gmbctl posts list                # All locations
  gmbctl posts list --location 3   # One location`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPostsList(cmd.Context())
	},
}

var postsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPostsGet(cmd.Context(), args[0])
	},
}

var postsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a post, or generate one with --ai",
	Long: `Create a post for a location.

Without --ai the content is posted as written. With --ai the server writes
the content, optionally around --topic.

Examples:
  gmbctl posts create --location 1 --content "Hello"
  gmbctl posts create --location 1 --ai --topic "Summer Sale"
  gmbctl posts create --location 1 --ai --type OFFER`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPostsCreate(cmd.Context())
	},
}

var postsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPostsUpdate(cmd, args[0])
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPostsDelete(cmd, args[0])
	},
}

var postsPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Queue a post for publishing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPostsPublish(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd, postsGetCmd, postsCreateCmd, postsUpdateCmd, postsDeleteCmd, postsPublishCmd)

	postsListCmd.Flags().Int64Var(&postLocation, "location", 0, "Only posts of this location")

	postsCreateCmd.Flags().Int64Var(&postLocation, "location", 0, "Location id (required)")
	postsCreateCmd.Flags().StringVar(&postContent, "content", "", "Post text")
	postsCreateCmd.Flags().BoolVar(&postUseAI, "ai", false, "Generate the content")
	postsCreateCmd.Flags().StringVar(&postTopic, "topic", "", "Topic for generated content")
	postsCreateCmd.Flags().StringVar(&postType, "type", "", "Post type: UPDATE, EVENT or OFFER")

	postsUpdateCmd.Flags().StringVar(&postContent, "content", "", "New text")
	postsUpdateCmd.Flags().StringVar(&postTitle, "title", "", "New title")
	postsUpdateCmd.Flags().StringVar(&postType, "type", "", "New post type")
	postsUpdateCmd.Flags().StringVar(&postMediaURL, "media-url", "", "New media URL")

	postsDeleteCmd.Flags().BoolVarP(&postYes, "yes", "y", false, "Do not ask for confirmation")
}

// postsPage activates a posts controller and loads it.
func postsPage(ctx context.Context, a *app) (*views.Posts, context.Context, error) {
	page := views.NewPosts(a.api.Posts, a.api.Locations, a.viewOptions()...)
	pctx := page.Activate(ctx)
	if err := page.Refresh(pctx); err != nil {
		return nil, nil, err
	}
	return page, pctx, nil
}

func runPostsList(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	if postLocation > 0 {
		posts, err := a.api.Posts.List(ctx, optionalID(postLocation))
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		return printPosts(views.PostsState{Posts: posts})
	}

	page, _, err := postsPage(ctx, a)
	if err != nil {
		return err
	}
	return printPosts(page.Snapshot())
}

func runPostsGet(ctx context.Context, arg string) error {
	id, err := parseID(arg, "post")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	post, err := a.api.Posts.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	if jsonOutput {
		return printJSON(post)
	}

	output.Section(fmt.Sprintf("Post %d", post.ID))
	fmt.Printf("Status:    %s %s\n", output.StatusIcon(post.Status), post.Status)
	fmt.Printf("Type:      %s\n", post.PostType)
	fmt.Printf("Location:  %d\n", post.LocationID)
	if post.Title != "" {
		fmt.Printf("Title:     %s\n", post.Title)
	}
	if post.AIGenerated {
		fmt.Printf("Source:    AI generated\n")
	}
	fmt.Printf("Created:   %s\n", post.CreatedAt.Display())
	if !post.PublishedAt.IsZero() {
		fmt.Printf("Published: %s\n", post.PublishedAt.Display())
	}
	fmt.Println()
	fmt.Println(post.Content)
	return nil
}

func runPostsCreate(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	page := views.NewPosts(a.api.Posts, a.api.Locations, a.viewOptions()...)
	pctx := page.Activate(ctx)
	page.OpenForm()
	page.SetForm(views.PostForm{
		LocationID: postLocation,
		UseAI:      postUseAI,
		Content:    postContent,
		Topic:      postTopic,
		PostType:   models.PostType(strings.ToUpper(postType)),
	})

	if postUseAI {
		output.Info("Generating post...")
	}
	post, err := page.Submit(pctx)
	if err != nil {
		return err
	}
	output.Success("Created post %d", post.ID)
	return printPosts(page.Snapshot())
}

func runPostsUpdate(cmd *cobra.Command, arg string) error {
	ctx := cmd.Context()
	id, err := parseID(arg, "post")
	if err != nil {
		return err
	}

	var req models.PostUpdate
	if cmd.Flags().Changed("content") {
		req.Content = &postContent
	}
	if cmd.Flags().Changed("title") {
		req.Title = &postTitle
	}
	if cmd.Flags().Changed("type") {
		t := models.PostType(strings.ToUpper(postType))
		req.PostType = &t
	}
	if cmd.Flags().Changed("media-url") {
		req.MediaURL = &postMediaURL
	}
	if req == (models.PostUpdate{}) {
		return fmt.Errorf("nothing to update: pass --content, --title, --type or --media-url")
	}

	a, err := authenticated(ctx)
	if err != nil {
		return err
	}
	if _, err := a.api.Posts.Update(ctx, id, req); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	output.Success("Updated post %d", id)

	page, _, err := postsPage(ctx, a)
	if err != nil {
		return err
	}
	return printPosts(page.Snapshot())
}

func runPostsDelete(cmd *cobra.Command, arg string) error {
	ctx := cmd.Context()
	id, err := parseID(arg, "post")
	if err != nil {
		return err
	}
	if !postYes && !confirm(cmd, fmt.Sprintf("Are you sure you want to delete post %d?", id)) {
		output.Muted("Cancelled")
		return nil
	}

	a, err := authenticated(ctx)
	if err != nil {
		return err
	}
	page := views.NewPosts(a.api.Posts, a.api.Locations, a.viewOptions()...)
	if err := page.Delete(page.Activate(ctx), id); err != nil {
		return err
	}
	output.Success("Deleted post %d", id)
	return printPosts(page.Snapshot())
}

func runPostsPublish(ctx context.Context, arg string) error {
	id, err := parseID(arg, "post")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	page := views.NewPosts(a.api.Posts, a.api.Locations, a.viewOptions()...)
	if err := page.Publish(page.Activate(ctx), id); err != nil {
		return err
	}
	return printPosts(page.Snapshot())
}

func printPosts(state views.PostsState) error {
	if jsonOutput {
		return printJSON(state.Posts)
	}
	if len(state.Posts) == 0 {
		output.Warning("No posts yet. Create your first post!")
		return nil
	}

	output.Section(fmt.Sprintf("Posts (%d)", len(state.Posts)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tLOCATION\tCREATED\tCONTENT")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t-------\t-------")
	for _, p := range state.Posts {
		location := state.LocationName(p.LocationID)
		if location == "" {
			location = fmt.Sprintf("#%d", p.LocationID)
		}
		content := p.Preview()
		if p.AIGenerated {
			content = "[AI] " + content
		}
		_, _ = fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\n",
			p.ID,
			output.StatusIcon(p.Status), p.Status,
			location,
			p.CreatedAt.Display(),
			strings.ReplaceAll(content, "\n", " "),
		)
	}
	return w.Flush()
}
