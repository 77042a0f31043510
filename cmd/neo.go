package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/impactorviz/impactor-cli/internal/engine"
	"github.com/impactorviz/impactor-cli/internal/model"
	"github.com/impactorviz/impactor-cli/pkg/neows"
)

var neoCmd = &cobra.Command{
	Use:   "neo",
	Short: "Browse the NASA near-Earth object catalog",
}

func newNeoWsClient() neows.Client {
	var opts []neows.Option
	if cfg.NeoWs.BaseURL != "" {
		opts = append(opts, neows.WithBaseURL(cfg.NeoWs.BaseURL))
	}
	if cfg.NeoWs.RateRPS > 0 {
		opts = append(opts, neows.WithRateLimit(cfg.NeoWs.RateRPS))
	}
	return neows.New(cfg.NeoWs.Key, opts...)
}

// -- neo list --

var (
	neoHazardousOnly bool
	neoPages         int
)

var neoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged near-Earth objects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("neo"); err != nil {
			return err
		}

		pages := neoPages
		if pages == 0 {
			pages = cfg.NeoWs.MaxPages
		}

		objects, err := newNeoWsClient().Browse(cmd.Context(), pages)
		if err != nil {
			return eris.Wrap(err, "neo list")
		}
		if neoHazardousOnly {
			objects = neows.Hazardous(objects)
		}

		if len(objects) == 0 {
			fmt.Fprintln(os.Stderr, "No objects found.")
			return nil
		}

		formatNEOList(os.Stdout, objects)
		return nil
	},
}

// -- neo simulate --

var (
	neoSimLat    float64
	neoSimLon    float64
	neoSimRadius float64
)

var neoSimulateCmd = &cobra.Command{
	Use:   "simulate <name>",
	Short: "Simulate a cataloged object hitting a point",
	Long:  "Looks the object up by name, substitutes defaults for missing size or speed, and evaluates the impact against the population raster.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("neo"); err != nil {
			return err
		}

		pages := neoPages
		if pages == 0 {
			pages = cfg.NeoWs.MaxPages
		}

		obj, err := newNeoWsClient().SearchByName(cmd.Context(), args[0], pages)
		if err != nil {
			return eris.Wrap(err, "neo simulate")
		}
		if obj == nil {
			return eris.Errorf("neo simulate: %q not found in the first %d pages", args[0], pages)
		}
		withDefaults := obj.WithDefaults()

		r, err := openRaster()
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		sc := model.Scenario{
			Name:        withDefaults.Name,
			Lat:         neoSimLat,
			Lon:         neoSimLon,
			DiameterM:   withDefaults.DiameterM,
			VelocityKmS: withDefaults.VelocityKmS,
			RadiusKM:    neoSimRadius,
		}
		result := engine.New(r).Evaluate(cmd.Context(), sc)
		if result.Error != "" {
			return eris.New(result.Error)
		}

		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stdout, "%s hitting (%.4f, %.4f)\n", withDefaults.Name, neoSimLat, neoSimLon)
		p.Fprintf(os.Stdout, "  Diameter:         %.0f m\n", withDefaults.DiameterM)
		p.Fprintf(os.Stdout, "  Velocity:         %.2f km/s\n", withDefaults.VelocityKmS)
		p.Fprintf(os.Stdout, "  Crater diameter:  %.2f km\n", result.CraterKM)
		p.Fprintf(os.Stdout, "  Blast radius:     %.2f km\n", result.BlastKM)
		p.Fprintf(os.Stdout, "  Thermal radius:   %.2f km\n", result.ThermalKM)
		p.Fprintf(os.Stdout, "  Population:       %.0f\n", result.Population)
		return nil
	},
}

// formatNEOList writes a tabular list of objects to w.
func formatNEOList(out io.Writer, objects []neows.Object) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDIAMETER_M\tVELOCITY_KM_S\tHAZARDOUS")
	_, _ = fmt.Fprintln(w, "--\t----\t----------\t-------------\t---------")

	for _, o := range objects {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.0f\t%.2f\t%v\n",
			o.ID, o.Name, o.DiameterM, o.VelocityKmS, o.Hazardous)
	}
	_ = w.Flush()
}

func init() {
	neoListCmd.Flags().BoolVar(&neoHazardousOnly, "hazardous", false, "only potentially hazardous objects")
	neoListCmd.Flags().IntVar(&neoPages, "pages", 0, "catalog pages to fetch (default from config)")

	neoSimulateCmd.Flags().Float64Var(&neoSimLat, "lat", 0, "impact latitude")
	neoSimulateCmd.Flags().Float64Var(&neoSimLon, "lon", 0, "impact longitude")
	neoSimulateCmd.Flags().Float64Var(&neoSimRadius, "radius", 0, "exposure radius in km (default: blast radius)")
	neoSimulateCmd.Flags().StringVar(&rasterPathFlag, "raster", "", "population raster path (default from config)")
	_ = neoSimulateCmd.MarkFlagRequired("lat")
	_ = neoSimulateCmd.MarkFlagRequired("lon")

	neoCmd.AddCommand(neoListCmd)
	neoCmd.AddCommand(neoSimulateCmd)
	rootCmd.AddCommand(neoCmd)
}
