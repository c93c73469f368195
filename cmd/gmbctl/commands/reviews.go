package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/views"
	"github.com/spf13/cobra"
)

var (
	// Review flags
	reviewLocation     int64
	reviewText         string
	reviewTone         string
	reviewRefreshDelay time.Duration
)

// reviewsCmd groups the review commands
var reviewsCmd = &cobra.Command{
	Use:     "reviews",
	Aliases: []string{"review"},
	Short:   "Read and answer reviews",
	Long: `Read and answer Google Business Profile reviews.

Subcommands:
  list            - List reviews
  get             - Show one review
  reply           - Post a reply
  generate-reply  - Draft a reply without posting it
  sync            - Import reviews from Google`,
}

var reviewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewsList(cmd.Context())
	},
}

var reviewsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewsGet(cmd.Context(), args[0])
	},
}

var reviewsReplyCmd = &cobra.Command{
	Use:   "reply <id>",
	Short: "Post a reply",
	Long: `Post a reply to a review.

Examples:
  gmbctl reviews reply 12 --text "Thanks for visiting!"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewsReply(cmd.Context(), args[0])
	},
}

var reviewsGenerateCmd = &cobra.Command{
	Use:   "generate-reply <id>",
	Short: "Draft a reply without posting it",
	Long: `Ask the server to draft a reply. Nothing is posted; pass the text to
gmbctl reviews reply once you are happy with it.

Examples:
  gmbctl reviews generate-reply 12
  gmbctl reviews generate-reply 12 --tone friendly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewsGenerate(cmd.Context(), args[0])
	},
}

var reviewsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import reviews from Google",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewsSync(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(reviewsCmd)
	reviewsCmd.AddCommand(reviewsListCmd, reviewsGetCmd, reviewsReplyCmd, reviewsGenerateCmd, reviewsSyncCmd)

	reviewsListCmd.Flags().Int64Var(&reviewLocation, "location", 0, "Only reviews of this location")
	reviewsReplyCmd.Flags().StringVar(&reviewText, "text", "", "Reply text (required)")
	reviewsGenerateCmd.Flags().StringVar(&reviewTone, "tone", models.DefaultReplyTone, "Tone of the draft")
	reviewsSyncCmd.Flags().Int64Var(&reviewLocation, "location", 0, "Only sync this location")
	reviewsSyncCmd.Flags().DurationVar(&reviewRefreshDelay, "refresh-delay", views.DefaultSyncRefreshDelay, "Wait before listing the imported reviews")
}

// reviewsPage activates a reviews controller and loads it.
func reviewsPage(ctx context.Context, a *app) (*views.Reviews, context.Context, error) {
	page := views.NewReviews(a.api.Reviews, a.viewOptions()...)
	pctx := page.Activate(ctx)
	if err := page.Refresh(pctx); err != nil {
		return nil, nil, err
	}
	return page, pctx, nil
}

func runReviewsList(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	if reviewLocation > 0 {
		reviews, err := a.api.Reviews.List(ctx, optionalID(reviewLocation))
		if err != nil {
			return fmt.Errorf("failed to list reviews: %w", err)
		}
		return printReviews(reviews)
	}

	page, _, err := reviewsPage(ctx, a)
	if err != nil {
		return err
	}
	return printReviews(page.Snapshot().Reviews)
}

func runReviewsGet(ctx context.Context, arg string) error {
	id, err := parseID(arg, "review")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	review, err := a.api.Reviews.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	if jsonOutput {
		return printJSON(review)
	}
	printReview(*review)
	return nil
}

func runReviewsReply(ctx context.Context, arg string) error {
	id, err := parseID(arg, "review")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	page, pctx, err := reviewsPage(ctx, a)
	if err != nil {
		return err
	}
	if err := page.Select(id); err != nil {
		return err
	}
	page.SetReplyText(reviewText)
	if err := page.SubmitReply(pctx); err != nil {
		return err
	}
	output.Success("Reply posted")
	return printReviews(page.Snapshot().Reviews)
}

func runReviewsGenerate(ctx context.Context, arg string) error {
	id, err := parseID(arg, "review")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	page, pctx, err := reviewsPage(ctx, a)
	if err != nil {
		return err
	}
	if err := page.Select(id); err != nil {
		return err
	}
	text, err := page.GenerateReply(pctx, reviewTone)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(models.ReplySuggestion{ReplyText: text})
	}
	output.Section("Suggested reply")
	fmt.Println(text)
	fmt.Println()
	output.Muted("Not posted. Run: gmbctl reviews reply %d --text %q", id, text)
	return nil
}

func runReviewsSync(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	page := views.NewReviews(a.api.Reviews, a.viewOptions()...)
	page.SyncRefreshDelay = reviewRefreshDelay
	if err := page.Sync(page.Activate(ctx), optionalID(reviewLocation)); err != nil {
		return err
	}
	return printReviews(page.Snapshot().Reviews)
}

func printReviews(reviews []models.Review) error {
	if jsonOutput {
		return printJSON(reviews)
	}
	if len(reviews) == 0 {
		output.Warning("No reviews yet. Sync your reviews from Google Business Profile.")
		return nil
	}

	output.Section(fmt.Sprintf("Reviews (%d)", len(reviews)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRATING\tREVIEWER\tDATE\tREPLIED\tCOMMENT")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t----\t-------\t-------")
	for _, r := range reviews {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			output.Stars(r),
			r.ReviewerName,
			r.ReviewCreatedAt.Display(),
			output.OnOff(r.Replied()),
			truncate(r.Comment, 60),
		)
	}
	return w.Flush()
}

func printReview(r models.Review) {
	output.Section(fmt.Sprintf("Review %d", r.ID))
	fmt.Printf("%s  %s  %s\n", output.Stars(r), r.ReviewerName, r.ReviewCreatedAt.Display())
	if r.Comment != "" {
		fmt.Println()
		fmt.Println(r.Comment)
	}
	fmt.Println()
	if !r.Replied() {
		output.Muted("No reply yet")
		return
	}
	label := "Your reply"
	if r.AIGeneratedReply {
		label += " (AI)"
	}
	if !r.ReplyAt.IsZero() {
		label += ", " + r.ReplyAt.Display()
	}
	output.Info("%s:", label)
	fmt.Println(r.ReplyText)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
