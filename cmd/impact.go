package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/impactorviz/impactor-cli/internal/export"
	"github.com/impactorviz/impactor-cli/internal/exposure"
	"github.com/impactorviz/impactor-cli/internal/model"
	"github.com/impactorviz/impactor-cli/internal/physics"
)

var (
	impactLat       float64
	impactLon       float64
	impactDiameter  float64
	impactVelocity  float64
	impactDensity   float64
	impactRadius    float64
	impactGeoJSON   string
	impactShapefile string
)

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Estimate impact effects and exposed population at a point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		crater, err := physics.CraterDiameterDensityKM(impactDiameter, impactVelocity, impactDensity)
		if err != nil {
			return eris.Wrap(err, "impact")
		}

		result := model.RunResult{
			CraterKM:  crater,
			BlastKM:   physics.BlastRadiusKM(crater),
			ThermalKM: physics.ThermalRadiationRadiusKM(crater),
			RadiusKM:  impactRadius,
		}
		if result.RadiusKM == 0 {
			result.RadiusKM = result.BlastKM
		}

		r, err := openRaster()
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		result.Population, err = exposure.PopulationWithinRadius(r, impactLat, impactLon, result.RadiusKM)
		if err != nil {
			return eris.Wrap(err, "impact")
		}

		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stdout, "Impact at (%.4f, %.4f)\n", impactLat, impactLon)
		p.Fprintf(os.Stdout, "  Crater diameter:  %.2f km\n", result.CraterKM)
		p.Fprintf(os.Stdout, "  Blast radius:     %.2f km\n", result.BlastKM)
		p.Fprintf(os.Stdout, "  Thermal radius:   %.2f km\n", result.ThermalKM)
		p.Fprintf(os.Stdout, "  Exposure radius:  %.2f km\n", result.RadiusKM)
		p.Fprintf(os.Stdout, "  Population:       %.0f\n", result.Population)

		rings := export.DamageRings(impactLat, impactLon, result)
		if impactGeoJSON != "" {
			if err := export.WriteGeoJSONFile(impactGeoJSON, rings); err != nil {
				return err
			}
			p.Fprintf(os.Stdout, "Wrote %s\n", impactGeoJSON)
		}
		if impactShapefile != "" {
			if err := export.WriteShapefile(impactShapefile, rings); err != nil {
				return err
			}
			p.Fprintf(os.Stdout, "Wrote %s\n", impactShapefile)
		}
		return nil
	},
}

func init() {
	impactCmd.Flags().Float64Var(&impactLat, "lat", 0, "impact latitude")
	impactCmd.Flags().Float64Var(&impactLon, "lon", 0, "impact longitude")
	impactCmd.Flags().Float64Var(&impactDiameter, "diameter", 50, "object diameter in meters")
	impactCmd.Flags().Float64Var(&impactVelocity, "velocity", 20, "impact velocity in km/s")
	impactCmd.Flags().Float64Var(&impactDensity, "density", physics.DefaultDensityKgM3, "object density in kg/m^3")
	impactCmd.Flags().Float64Var(&impactRadius, "radius", 0, "exposure radius in km (default: blast radius)")
	impactCmd.Flags().StringVar(&impactGeoJSON, "geojson", "", "write damage rings to a GeoJSON file")
	impactCmd.Flags().StringVar(&impactShapefile, "shapefile", "", "write damage rings to a shapefile")
	impactCmd.Flags().StringVar(&rasterPathFlag, "raster", "", "population raster path (default from config)")
	_ = impactCmd.MarkFlagRequired("lat")
	_ = impactCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(impactCmd)
}
