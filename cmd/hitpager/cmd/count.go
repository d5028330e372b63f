package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hitpager/internal/errors"
)

func newCountCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "count [query...]",
		Short: "Print the number of records matching a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			sess, err := a.openSession()
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			adapter, err := sess.finder.CreatePaginatorAdapter(inputFor(args, status, nil))
			if err != nil {
				return err
			}
			n, err := errors.Retry(ctx, a.retryConfig(), func() (int, error) {
				return adapter.Count(ctx)
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only match records with this exact status")
	return cmd
}
