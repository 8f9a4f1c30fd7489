package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// postCmd fires the posting pipeline once.
var postCmd = &cobra.Command{
	Use:   "post [campaign-id]",
	Short: "Create one post for a campaign now",
	Long: `Runs the posting pipeline once, outside the scheduler. Platforms are
tried in random order and the first success wins. Exhausted quotas and
missing targets are skipped silently.`,
	Args: cobra.ExactArgs(1),
	RunE: createPost,
}

// commentCmd fires the commenting pipeline once.
var commentCmd = &cobra.Command{
	Use:   "comment [campaign-id]",
	Short: "Add comments to a campaign's recent posts now",
	Args:  cobra.ExactArgs(1),
	RunE:  createComments,
}

// deletePostCmd removes one post and its comments.
var deletePostCmd = &cobra.Command{
	Use:   "delete-post [campaign-id] [post-id]",
	Short: "Delete a post and its comments",
	Args:  cobra.ExactArgs(2),
	RunE:  deletePost,
}

// purgeCmd removes every post in a campaign.
var purgeCmd = &cobra.Command{
	Use:   "purge [campaign-id]",
	Short: "Delete all of a campaign's posts and comments",
	Args:  cobra.ExactArgs(1),
	RunE:  purgeCampaign,
}

// deleteCampaignCmd removes the campaign itself, cascading everything.
var deleteCampaignCmd = &cobra.Command{
	Use:   "delete-campaign [campaign-id]",
	Short: "Delete a campaign with all its posts, comments, and approvals",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteCampaign,
}

func createPost(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	post, err := a.svc.CreatePost(a.runCtx, args[0])
	if err != nil {
		return err
	}
	if post == nil {
		fmt.Println("Nothing to post: every platform was skipped.")
		return nil
	}
	fmt.Printf("Created %s post %s (%s)\n", post.Platform, post.ID, post.Status)
	fmt.Println(post.Content)
	return nil
}

func createComments(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	comments, err := a.svc.CreateComments(a.runCtx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Created %d comments.\n", len(comments))
	return nil
}

func deletePost(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.svc.DeletePost(args[1], args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted post %s.\n", args[1])
	return nil
}

func purgeCampaign(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.svc.DeleteAllPosts(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d posts from campaign %s.\n", n, args[0])
	return nil
}

func deleteCampaign(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.DeleteCampaign(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted campaign %s.\n", args[0])
	return nil
}
