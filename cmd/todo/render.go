package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/mahenzon/todo-app/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
	doneStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func visibility(l model.TodoList) string {
	if l.IsPublic {
		return "public"
	}
	return "private"
}

func printLists(w io.Writer, lists []model.TodoList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No lists yet."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tVISIBILITY")
	for _, l := range lists {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Title, visibility(l))
	}
	_ = tw.Flush()
}

func printTodos(w io.Writer, todos []model.TodoItem) {
	if len(todos) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No todos in this list."))
		return
	}
	for _, t := range todos {
		box, text := boxUnchecked, t.Text
		if t.IsCompleted {
			box, text = boxChecked, doneStyle.Render(t.Text)
		}
		fmt.Fprintf(w, "%s %s  %s\n", box, text, mutedStyle.Render(t.ID.String()))
	}
}

func printList(w io.Writer, l model.TodoList, todos []model.TodoItem) {
	fmt.Fprintf(w, "%s (%s)\n", titleStyle.Render(l.Title), visibility(l))
	printTodos(w, todos)
}
