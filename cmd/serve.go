package cmd

import (
	"github.com/spf13/cobra"

	cartCmd "github.com/Alturino/shopeasy/cart/cmd"
	productCmd "github.com/Alturino/shopeasy/product/cmd"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the cart, product and auth HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartCmd.RunCartService(cmd.Context(), configFrom(cmd.Context()))
		},
	}
}

func newBrowseCommand() *cobra.Command {
	page := 1
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Print a page of the product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return productCmd.RunBrowse(cmd.Context(), configFrom(cmd.Context()), page, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&page, "page", page, "page number, each page adds six products")
	return cmd
}
