package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mahenzon/todo-app/internal/actions"
)

func listCommands(c *cli) []*cobra.Command {
	lists := &cobra.Command{
		Use:   "lists",
		Short: "Show your lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.Session.IsValid() {
				return errLoginRequired
			}
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			s.Store.FetchLists(ctx)
			printLists(s.out, s.Store.Lists())
			return nil
		},
	}

	var public bool
	create := &cobra.Command{
		Use:   "list-create TITLE",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			l, err := s.Lists.CreateList(ctx, args[0], public)
			if err != nil {
				return err
			}
			if l == nil {
				return errEmptyInput
			}
			fmt.Fprintln(s.out, l.ID)
			return nil
		},
	}
	create.Flags().BoolVar(&public, "public", false, "make the list public")

	show := &cobra.Command{
		Use:   "list-show LIST_ID",
		Short: "Show a list and its todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			l, err := s.Open(ctx, args[0])
			if err != nil {
				return err
			}
			printList(s.out, *l, s.Store.Todos())
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "list-public LIST_ID",
		Short: "Toggle the public visibility of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			l, err := s.Open(ctx, args[0])
			if err != nil {
				return err
			}
			updated, err := s.Lists.ToggleVisibility(ctx, *l)
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, visibility(*updated))
			return nil
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "list-delete LIST_ID",
		Short: "Delete a list and its todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm actions.Confirmer = promptConfirmer{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
			if yes {
				confirm = actions.ConfirmFunc(func(context.Context, string, string) bool { return true })
			}
			s, err := c.connect(cmd, confirm)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			l, err := s.Open(ctx, args[0])
			if err != nil {
				return err
			}
			deleted, err := s.Lists.ConfirmDelete(ctx, *l, func() { fmt.Fprintln(s.out, "deleted") })
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(s.out, "cancelled")
			}
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	link := &cobra.Command{
		Use:   "list-link LIST_ID",
		Short: "Print the public link of a list and copy it to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			l, err := s.Open(ctx, args[0])
			if err != nil {
				return err
			}
			// a missing clipboard is reported by the notifier; the link is still printed
			link, _ := s.Lists.CopyPublicLink(*l)
			fmt.Fprintln(s.out, link)
			return nil
		},
	}

	return []*cobra.Command{lists, create, show, toggle, del, link}
}
