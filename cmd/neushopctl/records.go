package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-neushop/components/console/commands"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/pkg/neushop"
)

type entitiesCmd struct{}

type entitySummary struct {
	Code         string   `yaml:"code"`
	Label        string   `yaml:"label"`
	ListPath     string   `yaml:"list_path"`
	ResourcePath string   `yaml:"resource_path"`
	PrimaryKey   string   `yaml:"primary_key"`
	Creatable    []string `yaml:"creatable"`
	Editable     []string `yaml:"editable"`
}

func (cmd *entitiesCmd) Run(a *app) error {
	rt, err := a.start()
	if err != nil {
		return err
	}
	entities := rt.service.Registry().Entities()
	out := make([]entitySummary, len(entities))
	for i, e := range entities {
		out[i] = entitySummary{
			Code:         e.Code,
			Label:        e.Label,
			ListPath:     e.ListPath,
			ResourcePath: e.ResourcePath,
			PrimaryKey:   e.PrimaryKey,
			Creatable:    e.Creatable,
			Editable:     e.Editable,
		}
	}
	enc := yaml.NewEncoder(a.stdout)
	defer enc.Close()
	return enc.Encode(out)
}

type listCmd struct {
	Entity string `arg:"" help:"Entity code (user, product, order, ...)."`
	Output string `short:"o" enum:"table,yaml" default:"table" help:"Output format."`
}

func (cmd *listCmd) Run(a *app) error {
	rt, err := a.start()
	if err != nil {
		return err
	}
	id, done, err := a.session(rt)
	if err != nil {
		return err
	}
	defer done()

	loadErr := rt.exec.LoadPanel.Execute(a.ctx, commands.PanelInput{Workspace: id, Entity: cmd.Entity})
	view, err := rt.exec.Panel.Query(a.ctx, commands.PanelInput{Workspace: id, Entity: cmd.Entity})
	if err != nil {
		return err
	}
	if loadErr != nil {
		return statusError(view.Status, loadErr)
	}
	if cmd.Output == "yaml" {
		enc := yaml.NewEncoder(a.stdout)
		defer enc.Close()
		return enc.Encode(rowMaps(view))
	}
	return writeTable(a.stdout, view)
}

type createCmd struct {
	Entity string   `arg:"" help:"Entity code."`
	Set    []string `short:"s" help:"Field value as name=value (repeatable)."`
}

func (cmd *createCmd) Run(a *app) error {
	draft, err := parseAssignments(cmd.Set)
	if err != nil {
		return err
	}
	rt, err := a.start()
	if err != nil {
		return err
	}
	id, done, err := a.session(rt)
	if err != nil {
		return err
	}
	defer done()

	err = rt.exec.CreateRecord.Execute(a.ctx, commands.RecordInput{Workspace: id, Entity: cmd.Entity, Draft: draft})
	return a.report(rt, id, cmd.Entity, err)
}

type updateCmd struct {
	Entity string   `arg:"" help:"Entity code."`
	ID     string   `arg:"" help:"Primary key of the record."`
	Set    []string `short:"s" help:"Field value as name=value (repeatable). Unset editable fields keep their value."`
}

func (cmd *updateCmd) Run(a *app) error {
	changes, err := parseAssignments(cmd.Set)
	if err != nil {
		return err
	}
	rt, err := a.start()
	if err != nil {
		return err
	}
	id, done, err := a.session(rt)
	if err != nil {
		return err
	}
	defer done()

	if err := rt.exec.LoadPanel.Execute(a.ctx, commands.PanelInput{Workspace: id, Entity: cmd.Entity}); err != nil {
		return err
	}
	if err := rt.exec.StartEdit.Execute(a.ctx, commands.RecordInput{Workspace: id, Entity: cmd.Entity, ID: cmd.ID}); err != nil {
		return err
	}
	view, err := rt.exec.Panel.Query(a.ctx, commands.PanelInput{Workspace: id, Entity: cmd.Entity})
	if err != nil {
		return err
	}
	draft := currentValues(view, cmd.ID)
	for k, v := range changes {
		draft[k] = v
	}
	err = rt.exec.SaveEdit.Execute(a.ctx, commands.RecordInput{Workspace: id, Entity: cmd.Entity, ID: cmd.ID, Draft: draft})
	return a.report(rt, id, cmd.Entity, err)
}

type deleteCmd struct {
	Entity string `arg:"" help:"Entity code."`
	ID     string `arg:"" help:"Primary key of the record."`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (cmd *deleteCmd) Run(a *app) error {
	rt, err := a.start()
	if err != nil {
		return err
	}
	id, done, err := a.session(rt)
	if err != nil {
		return err
	}
	defer done()

	confirm := panel.AlwaysConfirm
	if !cmd.Yes {
		confirm = promptConfirmer(a.stdin, a.stdout)
	}
	var deleted bool
	err = rt.exec.DeleteRecord.Execute(a.ctx, commands.DeleteInput{
		Workspace: id,
		Entity:    cmd.Entity,
		ID:        cmd.ID,
		Confirm:   confirm,
		Deleted:   &deleted,
	})
	if err == nil && !deleted {
		fmt.Fprintln(a.stdout, "Cancelled")
		return nil
	}
	return a.report(rt, id, cmd.Entity, err)
}

// report prints the panel status line and converts failures into errors.
func (a *app) report(rt *runtime, id, entity string, opErr error) error {
	view, err := rt.exec.Panel.Query(a.ctx, commands.PanelInput{Workspace: id, Entity: entity})
	if err != nil {
		if opErr != nil {
			return opErr
		}
		return err
	}
	if opErr != nil {
		return statusError(view.Status, opErr)
	}
	if view.Status.Message != "" {
		fmt.Fprintln(a.stdout, view.Status.Message)
	}
	return nil
}

func statusError(status neushop.Status, err error) error {
	if status.Message == "" {
		return err
	}
	return fmt.Errorf("%s: %w", status.Message, err)
}

// promptConfirmer asks on out and accepts y or yes from in.
func promptConfirmer(in io.Reader, out io.Writer) panel.Confirmer {
	reader := bufio.NewReader(in)
	return panel.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

var errAssignment = errors.New("neushopctl: --set expects name=value")

func parseAssignments(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errAssignment, raw)
		}
		out[name] = value
	}
	return out, nil
}

func currentValues(view panel.TableView, id string) map[string]string {
	out := map[string]string{}
	for _, row := range view.Rows {
		if row.ID != id {
			continue
		}
		for _, cell := range row.Cells {
			out[cell.Column] = cell.Value
		}
	}
	return out
}

func rowMaps(view panel.TableView) []map[string]string {
	if view.Empty {
		return []map[string]string{}
	}
	out := make([]map[string]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		m := make(map[string]string, len(row.Cells))
		for _, cell := range row.Cells {
			m[cell.Column] = cell.Value
		}
		out = append(out, m)
	}
	return out
}

func writeTable(out io.Writer, view panel.TableView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	labels := make([]string, len(view.Columns))
	for i, col := range view.Columns {
		labels[i] = col.Label
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	if view.Empty {
		fmt.Fprintln(tw, view.Placeholder)
		return tw.Flush()
	}
	for _, row := range view.Rows {
		values := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			values[i] = cell.Value
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	return tw.Flush()
}
