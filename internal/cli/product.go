package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
)

// productFieldFlags maps edit flags to product columns.
//
//nolint:gochecknoglobals // Read-only flag table.
var productFieldFlags = []struct {
	flag, column, usage string
}{
	{"name", "product_name", "product name"},
	{"brand", "brand", "brand"},
	{"upc", "upc", "UPC code"},
	{"ingredients", "ingredients", "ingredient list"},
	{"analysis", "analysis", "analysis text"},
	{"image-url", "imageurl", "image URL (http or https)"},
}

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "product", Short: "Edit scanned products"}
	cmd.AddCommand(newProductEditCmd())
	return cmd
}

func newProductEditCmd() *cobra.Command {
	var sets []string
	values := make(map[string]*string, len(productFieldFlags))

	cmd := &cobra.Command{
		Use:   "edit <ean13>",
		Short: "Change fields of a product",
		Long: `Changes the given fields of the product with the EAN-13 code. Only fields
passed as flags are sent. --set column=value sets a column by its backend name.`,
		Example: `  vcadmin product edit 0012345678905 --brand "Oatly"
  vcadmin product edit 0012345678905 --set analysis="contains milk"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := productPatch(cmd, values, sets)
			if err != nil {
				return err
			}

			ean13 := strings.TrimSpace(args[0])
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err = a.client.UpdateProduct(ctx, ean13, patch); err != nil {
					return err
				}
				cmd.Printf("✅ Updated product %s: %s\n", ean13, strings.Join(sortedFields(patch), ", "))
				return nil
			})
		},
	}

	for _, f := range productFieldFlags {
		values[f.flag] = cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set column=value (repeatable)")
	return cmd
}

// productPatch collects changed flags and --set pairs into a patch.
func productPatch(cmd *cobra.Command, values map[string]*string, sets []string) (backend.Patch, error) {
	patch := backend.Patch{}
	for _, f := range productFieldFlags {
		if cmd.Flags().Changed(f.flag) {
			patch[f.column] = *values[f.flag]
		}
	}
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected column=value", s)
		}
		patch[key] = value
	}
	if len(patch) == 0 {
		return nil, backend.ErrEmptyPatch
	}
	return patch, nil
}
