// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/model"
	tpl "github.com/jeranaias/chatbi-tui/internal/templates"
	"github.com/jeranaias/chatbi-tui/internal/ui/components"
)

// templateFlags are shared by add and edit.
type templateFlags struct {
	name        string
	description string
	sql         string
	sqlFile     string
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "template name")
	cmd.Flags().StringVar(&f.description, "description", "", "what the template answers")
	cmd.Flags().StringVar(&f.sql, "sql", "", "SQL text")
	cmd.Flags().StringVar(&f.sqlFile, "sql-file", "", "read the SQL from a file ('-' for stdin)")
	cmd.MarkFlagsMutuallyExclusive("sql", "sql-file")
}

// apply copies the flags the user set onto form.
func (f *templateFlags) apply(cmd *cobra.Command, form *tpl.Form) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		form.Name = f.name
	}
	if flags.Changed("description") {
		form.Description = f.description
	}
	if flags.Changed("sql") {
		form.SQL = f.sql
	}
	if f.sqlFile != "" {
		var (
			data []byte
			err  error
		)
		if f.sqlFile == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(f.sqlFile)
		}
		if err != nil {
			return fmt.Errorf("read SQL: %w", err)
		}
		form.SQL = string(data)
	}
	return nil
}

func parseTemplateID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid template id %q", s)
	}
	return id, nil
}

// loadPanel fetches the template list once.
func loadPanel(ctx context.Context, e *env) (*tpl.Panel, error) {
	panel := tpl.NewPanel(e.client())
	if err := panel.Refresh(ctx); err != nil {
		return nil, err
	}
	return panel, nil
}

func templateRows(list []model.Template) []model.Row {
	rows := make([]model.Row, 0, len(list))
	for _, t := range list {
		rows = append(rows, model.NewRow("id", t.ID, "name", t.Name, "description", t.Description))
	}
	return rows
}

// reportSaved prints the outcome of a save. A failed refetch after a
// successful save is only a warning.
func (e *env) reportSaved(cmd *cobra.Command, verb string, saved model.Template, err error) error {
	if err != nil && !errors.Is(err, tpl.ErrFetch) {
		return err
	}
	w := cmd.OutOrStdout()
	if e.jsonOut {
		return NewJSONResponse("templates "+verb, saved).Print(w)
	}
	theme := e.theme()
	fmt.Fprintln(w, theme.Success.Render(fmt.Sprintf("%s template %d (%s)", verb, saved.ID, saved.Name)))
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), theme.Warning.Render("warning: "+err.Error()))
	}
	return nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func newTemplatesCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "List, create, edit and delete SQL templates",
	}
	cmd.AddCommand(
		newTemplatesListCommand(e),
		newTemplatesShowCommand(e),
		newTemplatesAddCommand(e),
		newTemplatesEditCommand(e),
		newTemplatesRemoveCommand(e),
	)
	return cmd
}

func newTemplatesListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			panel, err := loadPanel(cmd.Context(), e)
			if err != nil {
				return err
			}
			list := panel.Templates()

			w := cmd.OutOrStdout()
			if e.jsonOut {
				return NewJSONResponse("templates list", list).Print(w)
			}
			theme := e.theme()
			if len(list) == 0 {
				fmt.Fprintln(w, theme.Muted.Render("no templates yet; add one with 'chatbi templates add'"))
				return nil
			}
			fmt.Fprintln(w, components.Table{Rows: templateRows(list), MaxWidth: TerminalWidth()}.Render(theme))
			return nil
		},
	}
}

func newTemplatesShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one template with its SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			panel, err := loadPanel(cmd.Context(), e)
			if err != nil {
				return err
			}
			t, ok := panel.Find(id)
			if !ok {
				return fmt.Errorf("%w: %d", tpl.ErrUnknownTemplate, id)
			}

			w := cmd.OutOrStdout()
			if e.jsonOut {
				return NewJSONResponse("templates show", t).Print(w)
			}
			theme := e.theme()
			fmt.Fprintf(w, "%s %s\n", theme.FormLabel.Render(fmt.Sprintf("#%d", t.ID)), theme.HeaderTitle.Render(t.Name))
			fmt.Fprintln(w, t.Description)
			fmt.Fprintln(w, components.NewSQLBlock(t.SQL, TerminalWidth()-2).Render(theme))
			return nil
		},
	}
}

func newTemplatesAddCommand(e *env) *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template",
		Example: `  chatbi templates add --name "Sales by region" \
    --description "Total sales per region" \
    --sql "SELECT region, SUM(amount) FROM sales GROUP BY region"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			panel := tpl.NewPanel(e.client())
			var form tpl.Form
			if err := flags.apply(cmd, &form); err != nil {
				return err
			}
			panel.SetForm(form)

			saved, err := panel.Save(cmd.Context())
			return e.reportSaved(cmd, "created", saved, err)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTemplatesEditCommand(e *env) *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a template's name, description or SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			panel, err := loadPanel(cmd.Context(), e)
			if err != nil {
				return err
			}
			if err := panel.Edit(id); err != nil {
				return err
			}

			var applyErr error
			panel.UpdateForm(func(f *tpl.Form) {
				applyErr = flags.apply(cmd, f)
			})
			if applyErr != nil {
				return applyErr
			}

			saved, err := panel.Save(cmd.Context())
			return e.reportSaved(cmd, "updated", saved, err)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTemplatesRemoveCommand(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a template",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}
			panel, err := loadPanel(cmd.Context(), e)
			if err != nil {
				return err
			}
			t, ok := panel.Find(id)
			if !ok {
				return fmt.Errorf("%w: %d", tpl.ErrUnknownTemplate, id)
			}

			ok, err = requireConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(),
				fmt.Sprintf("Delete template %d (%s)", t.ID, t.Name),
				confirmOptions{Yes: yes, JSONMode: e.jsonOut, Interactive: IsTTY()})
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}

			err = panel.Delete(cmd.Context(), id)
			if err != nil && !errors.Is(err, tpl.ErrFetch) {
				return err
			}
			w := cmd.OutOrStdout()
			if e.jsonOut {
				return NewJSONResponse("templates rm", map[string]int{"deleted": id}).Print(w)
			}
			fmt.Fprintln(w, e.theme().Success.Render(fmt.Sprintf("deleted template %d", id)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}
