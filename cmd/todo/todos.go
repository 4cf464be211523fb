package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

var (
	errLoginRequired = errors.New("login required")
	errEmptyInput    = errors.New("empty input")
	errTodoNotFound  = errors.New("todo not found in list")
)

// findTodo looks a todo up in the todos of the opened list.
func findTodo(todos []model.TodoItem, id string) (model.TodoItem, error) {
	uid, err := convert.ParseID(id)
	if err != nil {
		return model.TodoItem{}, err
	}
	for _, t := range todos {
		if t.ID == uid {
			return t, nil
		}
	}
	return model.TodoItem{}, errTodoNotFound
}

func todoCommands(c *cli) []*cobra.Command {
	todos := &cobra.Command{
		Use:   "todos LIST_ID",
		Short: "Show the todos of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			if _, err := s.Open(ctx, args[0]); err != nil {
				return err
			}
			printTodos(s.out, s.Store.Todos())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add LIST_ID TEXT...",
		Short: "Add a todo to a list",
		Args:  cobra.MinimumNArgs(2),
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
			t, err := s.Todos.AddTodo(ctx, l.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if t == nil {
				return errEmptyInput
			}
			fmt.Fprintln(s.out, t.ID)
			return nil
		},
	}

	var done string
	toggle := &cobra.Command{
		Use:   "toggle LIST_ID TODO_ID",
		Short: "Flip the completion of a todo, or set it with --done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			if _, err := s.Open(ctx, args[0]); err != nil {
				return err
			}
			t, err := findTodo(s.Store.Todos(), args[1])
			if err != nil {
				return err
			}
			value := !t.IsCompleted
			switch done {
			case "":
			case "true":
				value = true
			case "false":
				value = false
			default:
				return fmt.Errorf("--done: want true or false, got %q", done)
			}
			if err := s.Todos.ToggleTodo(ctx, t, &value); err != nil {
				return err
			}
			printTodos(s.out, s.Store.Todos())
			return nil
		},
	}
	toggle.Flags().StringVar(&done, "done", "", "set completion explicitly (true|false)")

	rm := &cobra.Command{
		Use:   "rm LIST_ID TODO_ID",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx, cancel := c.deadline(cmd)
			defer cancel()
			if _, err := s.Open(ctx, args[0]); err != nil {
				return err
			}
			t, err := findTodo(s.Store.Todos(), args[1])
			if err != nil {
				return err
			}
			if err := s.Todos.DeleteTodo(ctx, t); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "deleted")
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch LIST_ID",
		Short: "Show a list and follow its changes until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			l, err := s.Follow(ctx, args[0])
			if err != nil {
				return err
			}
			printList(s.out, *l, s.Store.Todos())

			stop := s.Store.OnTodos(func(items []model.TodoItem) {
				fmt.Fprintln(s.out, "--")
				printTodos(s.out, items)
			})
			defer stop()
			if !s.Realtime.Connected() {
				return errors.New("realtime subscription failed")
			}
			fmt.Fprintln(s.out, mutedStyle.Render("Watching for changes (Ctrl+C to stop)"))
			<-ctx.Done()
			return nil
		},
	}

	return []*cobra.Command{todos, add, toggle, rm, watch}
}
