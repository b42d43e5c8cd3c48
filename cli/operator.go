package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	buildCmd = &cobra.Command{
		Use:   "build VALUE...",
		Short: "Build the tree on the uptree server from the given leaf values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leaves := make([]interface{}, len(args))
			for i, arg := range args {
				leaves[i] = arg
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
			defer cancel()

			resp, err := Client().Build(ctx, leaves)
			if err == nil {
				fmt.Println(resp.Root)
			}

			return err
		},
	}

	rootHashCmd = &cobra.Command{
		Use:   "root",
		Short: "Get the current root digest from the uptree server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
			defer cancel()

			root, err := Client().Root(ctx)
			if err == nil {
				fmt.Println(root)
			}

			return err
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update INDEX VALUE",
		Short: "Replace the leaf at INDEX with a new value and print the new root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %s: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
			defer cancel()

			resp, err := Client().Update(ctx, index, args[1])
			if err == nil {
				fmt.Println(resp.Root)
			}

			return err
		},
	}

	leafCmd = &cobra.Command{
		Use:   "leaf INDEX",
		Short: "Get the digest of the leaf at INDEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %s: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
			defer cancel()

			resp, err := Client().Leaf(ctx, index)
			if err == nil {
				fmt.Println(resp.Leaf)
			}

			return err
		},
	}
)
