package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/impactorviz/impactor-cli/internal/geo"
	"github.com/impactorviz/impactor-cli/internal/physics"
)

var (
	deflectLat      float64
	deflectLon      float64
	deflectVelocity float64
	deflectAngle    float64
	deflectDeltaV   float64
	deflectLeadDays float64
)

var deflectCmd = &cobra.Command{
	Use:   "deflect",
	Short: "Predict an impact point and the shift from a deflection burn",
	Long:  "Projects the atmospheric-entry trajectory to a ground impact point, then applies a kinetic-impactor delta-v over the lead time to show where the object lands instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		impactLat, impactLon, err := physics.PredictImpactPoint(deflectLat, deflectLon, deflectVelocity, deflectAngle)
		if err != nil {
			return eris.Wrap(err, "deflect")
		}

		fmt.Fprintf(os.Stdout, "Predicted impact point: (%.4f, %.4f)\n", impactLat, impactLon)

		if deflectDeltaV <= 0 {
			return nil
		}

		newLat, newLon, err := physics.SimulateDeflectionEffect(impactLat, impactLon, deflectDeltaV, deflectLeadDays, deflectVelocity)
		if err != nil {
			return eris.Wrap(err, "deflect")
		}

		shift := geo.HaversineKM(impactLat, impactLon, newLat, newLon)
		fmt.Fprintf(os.Stdout, "Deflected impact point: (%.4f, %.4f)\n", newLat, newLon)
		fmt.Fprintf(os.Stdout, "Shift: %.2f km with %.1f m/s delta-v and %.0f days lead time\n",
			shift, deflectDeltaV, deflectLeadDays)
		return nil
	},
}

func init() {
	deflectCmd.Flags().Float64Var(&deflectLat, "lat", 0, "entry point latitude")
	deflectCmd.Flags().Float64Var(&deflectLon, "lon", 0, "entry point longitude")
	deflectCmd.Flags().Float64Var(&deflectVelocity, "velocity", 20, "entry velocity in km/s")
	deflectCmd.Flags().Float64Var(&deflectAngle, "angle", 45, "flight path angle in degrees from horizontal")
	deflectCmd.Flags().Float64Var(&deflectDeltaV, "delta-v", 0, "deflection delta-v in m/s")
	deflectCmd.Flags().Float64Var(&deflectLeadDays, "lead-time", 30, "days between the burn and impact")
	_ = deflectCmd.MarkFlagRequired("lat")
	_ = deflectCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(deflectCmd)
}
