package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goliatone/go-neushop/components/console/commands"
	"github.com/goliatone/go-neushop/components/dashboard"
)

type queryCmd struct {
	LowStock    lowStockCmd    `cmd:"" name:"low-stock" help:"Products at or below a stock threshold."`
	BestSellers bestSellersCmd `cmd:"" name:"best-sellers" help:"Top selling products."`
	Revenue     revenueCmd     `cmd:"" help:"Total revenue over a window."`
	Orders      ordersCmd      `cmd:"" help:"Orders in a status."`
}

type lowStockCmd struct {
	Threshold int `default:"10" help:"Stock threshold."`
}

func (cmd *lowStockCmd) Run(a *app) error {
	return a.runWidget(dashboard.WidgetLowStock, map[string]string{"threshold": strconv.Itoa(cmd.Threshold)})
}

type bestSellersCmd struct {
	Days  int `default:"30" help:"Look-back window in days."`
	Limit int `default:"5" help:"Number of products."`
}

func (cmd *bestSellersCmd) Run(a *app) error {
	return a.runWidget(dashboard.WidgetBestSellers, map[string]string{
		"days":  strconv.Itoa(cmd.Days),
		"limit": strconv.Itoa(cmd.Limit),
	})
}

type revenueCmd struct {
	Days int `default:"30" help:"Look-back window in days."`
}

func (cmd *revenueCmd) Run(a *app) error {
	return a.runWidget(dashboard.WidgetRevenue, map[string]string{"days": strconv.Itoa(cmd.Days)})
}

type ordersCmd struct {
	Status string `default:"pending" enum:"pending,shipped,cancelled,processing,delivered,completed" help:"Order status."`
}

func (cmd *ordersCmd) Run(a *app) error {
	return a.runWidget(dashboard.WidgetOrdersByStatus, map[string]string{"status": cmd.Status})
}

func (a *app) runWidget(code string, params map[string]string) error {
	rt, err := a.start()
	if err != nil {
		return err
	}
	id, done, err := a.session(rt)
	if err != nil {
		return err
	}
	defer done()

	runErr := rt.exec.RunWidget.Execute(a.ctx, commands.RunWidgetInput{Workspace: id, Code: code, Params: params})
	state, err := rt.exec.Widget.Query(a.ctx, commands.WidgetInput{Workspace: id, Code: code})
	if err != nil {
		return err
	}
	if runErr != nil {
		return statusError(state.Status, runErr)
	}
	writeWidget(a.stdout, state)
	return nil
}

func writeWidget(out io.Writer, state dashboard.WidgetState) {
	data := state.Data
	if text, ok := data["text"].(string); ok {
		fmt.Fprintln(out, text)
	}
	if lines, ok := data["lines"].([]string); ok {
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	}
	if orders, ok := data["orders"].([]map[string]any); ok {
		for _, order := range orders {
			fmt.Fprintln(out, order["heading"])
			fmt.Fprintln(out, "  ", order["date"])
			fmt.Fprintln(out, "  ", order["total"])
		}
	}
	if empty, ok := data["empty_text"].(string); ok {
		fmt.Fprintln(out, empty)
	}
}
