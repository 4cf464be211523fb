package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func authCommands(c *cli) []*cobra.Command {
	var password, confirm string

	register := &cobra.Command{
		Use:   "register EMAIL",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("need -p")
			}
			if confirm == "" {
				confirm = password
			}
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			if err := s.Session.Register(ctx, args[0], password, confirm); err != nil {
				return err
			}
			fmt.Fprintln(s.out, s.Session.UserID())
			return nil
		},
	}
	register.Flags().StringVarP(&password, "password", "p", "", "password")
	register.Flags().StringVar(&confirm, "confirm", "", "password confirmation (defaults to --password)")

	login := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Log in and save the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("need -p")
			}
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			if err := s.Session.Login(ctx, args[0], password); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "ok")
			return nil
		},
	}
	login.Flags().StringVarP(&password, "password", "p", "", "password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			s.Session.Logout()
			fmt.Fprintln(s.out, "ok")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			u := s.Session.User()
			if u == nil || !s.Session.IsValid() {
				fmt.Fprintln(s.out, "anonymous")
				return nil
			}
			fmt.Fprintf(s.out, "%s\t%s\n", u.Email, u.ID)
			return nil
		},
	}

	return []*cobra.Command{register, login, logout, whoami}
}
