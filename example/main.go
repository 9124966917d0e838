package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vsinha/lotplan/pkg/application/services/planning"
	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/services"
	"github.com/vsinha/lotplan/pkg/domain/solver"
	"github.com/vsinha/lotplan/pkg/infrastructure/solver/bnb"
)

func main() {
	ctx := context.Background()

	// Three items over four periods, with a tight warehouse in period 2
	rec := services.DefaultRecord(3, 4)
	rec.WarehouseCapacity[2] = 40
	rec.Demand.Set(entities.ItemLabel(2), 4, 90)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	svc := planning.New(bnb.New(), planning.WithLogger(logger))

	fmt.Println("🚀 Planning production for 3 items over 4 periods...")
	result, err := svc.Plan(ctx, rec, solver.Config{TimeLimit: 10 * time.Second})
	if err != nil {
		fmt.Printf("❌ Planning failed: %v\n", err)
		return
	}

	out := result.Output
	fmt.Printf("📊 %s\n", out.Report.Message)
	if !out.Solved() {
		for _, g := range out.Report.Guidance {
			fmt.Printf("  %s\n", g)
		}
		return
	}

	for i, plan := range out.Production {
		fmt.Printf("  %s: produce %v, setups %v, hold %v\n",
			plan.Item, plan.Periods, out.Setups[i].Periods, out.Inventory[i].Periods)
	}
	fmt.Printf("💰 Total cost: $%s (production $%s, setup $%s, holding $%s)\n",
		out.Costs.Total.StringFixed(2),
		out.Costs.Production.StringFixed(2),
		out.Costs.Setup.StringFixed(2),
		out.Costs.Holding.StringFixed(2))
	fmt.Printf("🔍 Solved %d variables in %v over %d nodes\n",
		result.ModelStats.Variables, result.Solve.Elapsed, result.Solve.Nodes)
}
