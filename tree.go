package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gdslab/d2s-go/internal/d2s"
)

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the full project/flight/data-product hierarchy",
		Long: `Fetch every project, its flights, and their data products, and print
them as an indented tree. Branches are fetched concurrently; a failing
branch is reported inline without aborting the rest.`,
		Args: cobra.NoArgs,
		RunE: runTree,
	}

	cmd.Flags().Bool("raster", false, "only projects and flights with raster data products")

	return cmd
}

// treeFlight is one flight branch with its resolved data products.
type treeFlight struct {
	Flight       *d2s.Flight        `json:"flight"`
	DataProducts []*d2s.DataProduct `json:"data_products,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// treeProject is one project branch. Error is set when the flight listing
// itself failed; per-flight failures live on the flight node.
type treeProject struct {
	Project *d2s.Project  `json:"project"`
	Flights []*treeFlight `json:"flights,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func runTree(cmd *cobra.Command, _ []string) error {
	env, err := openWorkspace()
	if err != nil {
		return err
	}

	hasRaster := rasterFilter(cmd)

	projects, err := env.ws.Projects(cmd.Context(), hasRaster)
	if err = env.finishFetch(err); err != nil {
		return err
	}

	nodes := fetchBranches(cmd.Context(), projects.Collection, hasRaster, resolvedCfg.Workers)

	// Persist again: branch fetches may have rotated the session cookies
	// after the initial listing did.
	_ = env.finishFetch(nil)

	if flagJSON {
		return printJSON(os.Stdout, nodes)
	}

	printTree(nodes)

	return nil
}

// fetchBranches resolves flights and data products for every project with
// at most workers concurrent branches. Failures are recorded on the node
// they belong to; the walk itself never fails.
func fetchBranches(ctx context.Context, projects []*d2s.Project, hasRaster bool, workers int) []*treeProject {
	nodes := make([]*treeProject, len(projects))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range projects {
		g.Go(func() error {
			nodes[i] = fetchProjectBranch(ctx, p, hasRaster)

			return nil
		})
	}

	// Goroutines only record errors on their node, so Wait cannot fail.
	_ = g.Wait()

	return nodes
}

func fetchProjectBranch(ctx context.Context, p *d2s.Project, hasRaster bool) *treeProject {
	node := &treeProject{Project: p}

	flights, err := p.Flights(ctx, hasRaster)
	if err != nil {
		node.Error = err.Error()

		return node
	}

	for _, f := range flights.Collection {
		fn := &treeFlight{Flight: f}

		products, err := f.DataProducts(ctx)
		if err != nil {
			fn.Error = err.Error()
		} else {
			fn.DataProducts = products.Collection
		}

		node.Flights = append(node.Flights, fn)
	}

	return node
}

func printTree(nodes []*treeProject) {
	for _, n := range nodes {
		fmt.Printf("%s  %s\n", n.Project.ID, n.Project.Title)

		if n.Error != "" {
			fmt.Printf("  ! %s\n", n.Error)

			continue
		}

		for _, fn := range n.Flights {
			f := fn.Flight
			fmt.Printf("  %s  %s  %s\n", f.ID, f.AcquisitionDate, f.Sensor)

			if fn.Error != "" {
				fmt.Printf("    ! %s\n", fn.Error)

				continue
			}

			for _, dp := range fn.DataProducts {
				fmt.Printf("    %s  %s  %s\n", dp.ID, dp.DataType, dp.Status)
			}
		}
	}
}
