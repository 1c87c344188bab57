package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gdslab/d2s-go/internal/d2s"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE:  runProjects,
	}

	cmd.Flags().Bool("raster", false, "only projects with raster data products")

	return cmd
}

func newFlightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flights <project-id>",
		Short: "List a project's flights",
		Args:  cobra.ExactArgs(1),
		RunE:  runFlights,
	}

	cmd.Flags().Bool("raster", false, "only flights with raster data products")

	return cmd
}

func newDataProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data-products <project-id> <flight-id>",
		Short: "List a flight's data products",
		Args:  cobra.ExactArgs(2),
		RunE:  runDataProducts,
	}
}

// rasterFilter returns the effective has_raster filter: the --raster flag
// when the user set it, otherwise the config default.
func rasterFilter(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("raster") {
		v, _ := cmd.Flags().GetBool("raster")

		return v
	}

	return resolvedCfg.HasRaster
}

// workspaceEnv bundles everything an API command needs: the resource
// hierarchy root, the live session behind it (for persisting rotated
// cookies afterwards), the saved account email, and the logger.
type workspaceEnv struct {
	ws      *d2s.Workspace
	session *d2s.Session
	email   string
	logger  *slog.Logger
}

// openWorkspace loads the saved session and builds the shared client and
// workspace over it.
func openWorkspace() (*workspaceEnv, error) {
	if err := requireBaseURL(); err != nil {
		return nil, err
	}

	logger := buildLogger()

	state, session, err := loadSession()
	if err != nil {
		return nil, err
	}

	client, err := d2s.NewClient(resolvedCfg.BaseURL, session, defaultHTTPClient(), logger)
	if err != nil {
		if errors.Is(err, d2s.ErrMissingAccessToken) {
			return nil, fmt.Errorf("saved session has no access token — run 'd2s login'")
		}

		return nil, err
	}

	client.SetUserAgent(resolvedCfg.UserAgent)

	return &workspaceEnv{
		ws:      d2s.NewWorkspace(client, state.APIKey),
		session: session,
		email:   state.Email,
		logger:  logger,
	}, nil
}

// finishFetch persists possibly-rotated cookies after a successful API
// call and rewrites session-expiry errors with a login hint. Refresh
// rotations would otherwise be lost between one-shot CLI invocations.
func (e *workspaceEnv) finishFetch(err error) error {
	if err != nil {
		if errors.Is(err, d2s.ErrSessionExpired) {
			return fmt.Errorf("%w — run 'd2s login'", err)
		}

		return err
	}

	if saveErr := saveSession(e.session, e.email, e.logger); saveErr != nil {
		e.logger.Warn("failed to persist refreshed session",
			slog.String("error", saveErr.Error()),
		)
	}

	return nil
}

func runProjects(cmd *cobra.Command, _ []string) error {
	env, err := openWorkspace()
	if err != nil {
		return err
	}

	projects, err := env.ws.Projects(cmd.Context(), rasterFilter(cmd))
	if err = env.finishFetch(err); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, projects.Collection)
	}

	rows := make([][]string, 0, len(projects.Collection))
	for _, p := range projects.Collection {
		rows = append(rows, []string{p.ID, truncate(p.Title), truncate(p.Description)})
	}

	printTable(os.Stdout, []string{"ID", "TITLE", "DESCRIPTION"}, rows)
	statusf("%d project(s)\n", len(rows))

	return nil
}

func runFlights(cmd *cobra.Command, args []string) error {
	env, err := openWorkspace()
	if err != nil {
		return err
	}

	flights, err := env.ws.Project(args[0]).Flights(cmd.Context(), rasterFilter(cmd))
	if err = env.finishFetch(err); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, flights.Collection)
	}

	rows := make([][]string, 0, len(flights.Collection))
	for _, f := range flights.Collection {
		rows = append(rows, []string{f.ID, f.AcquisitionDate, f.Sensor, f.Platform, truncate(f.Name)})
	}

	printTable(os.Stdout, []string{"ID", "DATE", "SENSOR", "PLATFORM", "NAME"}, rows)
	statusf("%d flight(s)\n", len(rows))

	return nil
}

func runDataProducts(cmd *cobra.Command, args []string) error {
	env, err := openWorkspace()
	if err != nil {
		return err
	}

	products, err := env.ws.Flight(args[0], args[1]).DataProducts(cmd.Context())
	if err = env.finishFetch(err); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, products.Collection)
	}

	rows := make([][]string, 0, len(products.Collection))
	for _, dp := range products.Collection {
		rows = append(rows, []string{dp.ID, dp.DataType, dp.Status, truncate(dp.URL)})
	}

	printTable(os.Stdout, []string{"ID", "TYPE", "STATUS", "URL"}, rows)
	statusf("%d data product(s)\n", len(rows))

	return nil
}
