package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/search"
)

// ErrNotConfirmed is returned when a destructive command is declined.
var ErrNotConfirmed = errors.New("aborted: not confirmed")

// clearValue is the flag value that clears an optional field.
const clearValue = backend.NullFilterValue

func newIngredientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ingredient", Short: "Create, classify and delete ingredients"}
	cmd.AddCommand(newIngredientAddCmd(), newIngredientEditCmd(), newIngredientDeleteCmd())
	return cmd
}

// ingredientFlags holds --class and --primary-class.
type ingredientFlags struct {
	class        string
	primaryClass string
}

func (f *ingredientFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.class, "class", "",
		fmt.Sprintf("ingredient class (%s; %q clears)", strings.Join(backend.IngredientClasses, ", "), clearValue))
	cmd.Flags().StringVar(&f.primaryClass, "primary-class", "",
		fmt.Sprintf("primary class (%s; %q clears)", strings.Join(backend.PrimaryClasses, ", "), clearValue))
}

// classValue converts a flag into the optional class it sets. ok is false when
// the flag was not given.
func classValue(cmd *cobra.Command, name, value string) (*string, bool) {
	if !cmd.Flags().Changed(name) {
		return nil, false
	}
	if value == "" || value == clearValue {
		return nil, true
	}
	return &value, true
}

func newIngredientAddCmd() *cobra.Command {
	var flags ingredientFlags

	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Add an ingredient",
		Example: `  vcadmin ingredient add "pea protein" --class vegan --primary-class vegan`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := backend.IngredientInput{Title: args[0]}
			in.Class, _ = classValue(cmd, "class", flags.class)
			in.PrimaryClass, _ = classValue(cmd, "primary-class", flags.primaryClass)

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.client.CreateIngredient(ctx, in); err != nil {
					return err
				}
				cmd.Printf("✅ Added ingredient %q\n", strings.TrimSpace(in.Title))
				return nil
			})
		},
	}

	flags.add(cmd)
	return cmd
}

func newIngredientEditCmd() *cobra.Command {
	var flags ingredientFlags

	cmd := &cobra.Command{
		Use:   "edit <title>",
		Short: "Change an ingredient's classes",
		Long: `Changes the class and/or primary class of an existing ingredient.
A class that is not given keeps its current value; "null" clears it.`,
		Example: `  vcadmin ingredient edit "soy lecithin" --class vegan
  vcadmin ingredient edit "carmine" --primary-class null`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, classSet := classValue(cmd, "class", flags.class)
			primary, primarySet := classValue(cmd, "primary-class", flags.primaryClass)
			if !classSet && !primarySet {
				return errors.New("nothing to change: pass --class and/or --primary-class")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				current, err := findIngredient(ctx, a.client, args[0])
				if err != nil {
					return err
				}

				in := backend.IngredientInput{
					Title:        current.Title,
					Class:        current.Class,
					PrimaryClass: current.PrimaryClass,
				}
				if classSet {
					in.Class = class
				}
				if primarySet {
					in.PrimaryClass = primary
				}

				if err = a.client.UpdateIngredient(ctx, in); err != nil {
					return err
				}
				cmd.Printf("✅ Updated ingredient %q: class=%s primary_class=%s\n",
					in.Title, displayOptional(in.Class), displayOptional(in.PrimaryClass))
				return nil
			})
		},
	}

	flags.add(cmd)
	return cmd
}

func newIngredientDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <title>",
		Short:   "Delete an ingredient",
		Example: `  vcadmin ingredient delete "test ingredient" --yes`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			if !yes {
				if !isTerminal(os.Stdin) {
					return fmt.Errorf("%w; pass --yes to delete non-interactively", ErrNotConfirmed)
				}
				if !Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), fmt.Sprintf("Delete ingredient %q?", title)).Accepted {
					return ErrNotConfirmed
				}
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.client.DeleteIngredient(ctx, title); err != nil {
					return err
				}
				cmd.Printf("✅ Deleted ingredient %q\n", title)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// findIngredient looks up an ingredient by exact title.
func findIngredient(ctx context.Context, client *backend.Client, title string) (backend.Ingredient, error) {
	title = strings.TrimSpace(title)
	page, err := client.SearchIngredients(ctx, search.Request{
		Query: search.Query{Raw: title, Pattern: title, Type: search.SearchExact},
		Limit: 1,
	})
	if err != nil {
		return backend.Ingredient{}, err
	}
	for _, ing := range page.Items {
		if strings.EqualFold(ing.Title, title) {
			return ing, nil
		}
	}
	return backend.Ingredient{}, fmt.Errorf("ingredient %q not found", title)
}

func displayOptional(s *string) string {
	if s == nil {
		return clearValue
	}
	return *s
}
