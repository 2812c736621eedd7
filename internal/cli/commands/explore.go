package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/clipnest/clipnest/internal/feed"
)

// NewExploreCmd creates the explore command
func NewExploreCmd(opts ...Option) *cobra.Command {
	var category, search string

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse pins by category and search text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newRunner(opts...).runExplore(category, search)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category id (prompts when not provided)")
	cmd.Flags().StringVar(&search, "search", "", "Match title, description or author")

	return cmd
}

func (r *runner) runExplore(category, search string) error {
	content, err := r.loadFeed()
	if err != nil {
		return err
	}

	if category == "" {
		category = feed.AllCategories
		if r.interactive() {
			category, err = promptCategory(content.Categories())
			if err != nil {
				return err
			}
		}
	}
	if category != feed.AllCategories && !content.HasCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}

	posts := content.Filter(category, search)
	if len(posts) == 0 {
		fmt.Fprintln(r.out, "No pins found.")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAUTHOR\tLIKES")
	fmt.Fprintln(w, "──\t─────\t────────\t──────\t─────")

	for _, post := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
			post.ID,
			post.Title,
			post.Category,
			post.Author.Name,
			post.Likes,
		)
	}

	return w.Flush()
}

// promptCategory shows an interactive prompt for the user to pick a category
func promptCategory(categories []feed.Category) (string, error) {
	if len(categories) == 0 {
		return feed.AllCategories, nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Icon }} {{ .Name | cyan }}",
		Inactive: "  {{ .Icon }} {{ .Name }}",
		Selected: "{{ .Name | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a category",
		Items:     categories,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("category selection cancelled: %w", err)
	}

	return categories[index].ID, nil
}
