package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/impactorviz/impactor-cli/internal/exposure"
)

var (
	exposureLat    float64
	exposureLon    float64
	exposureRadius float64
)

var exposureCmd = &cobra.Command{
	Use:   "exposure",
	Short: "Estimate population within a radius of a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := openRaster()
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		pop, err := exposure.PopulationWithinRadius(r, exposureLat, exposureLon, exposureRadius)
		if err != nil {
			return eris.Wrap(err, "exposure")
		}

		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stdout, "Population within %.1f km of (%.4f, %.4f): %.0f\n",
			exposureRadius, exposureLat, exposureLon, pop)
		return nil
	},
}

func init() {
	exposureCmd.Flags().Float64Var(&exposureLat, "lat", 0, "latitude of the center point")
	exposureCmd.Flags().Float64Var(&exposureLon, "lon", 0, "longitude of the center point")
	exposureCmd.Flags().Float64Var(&exposureRadius, "radius", 25, "radius in kilometers")
	exposureCmd.Flags().StringVar(&rasterPathFlag, "raster", "", "population raster path (default from config)")
	_ = exposureCmd.MarkFlagRequired("lat")
	_ = exposureCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(exposureCmd)
}
