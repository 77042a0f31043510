package export

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/impactorviz/impactor-cli/internal/model"
)

var reportHeader = []string{
	"Run ID", "Scenario", "Status",
	"Lat", "Lon", "Diameter (m)", "Velocity (km/s)",
	"Crater (km)", "Blast (km)", "Thermal (km)",
	"Exposure Radius (km)", "Population", "Error", "Created",
}

// WriteRunReport writes runs to an XLSX workbook at path, one row per
// run with scenario inputs and computed results side by side.
func WriteRunReport(path string, runs []model.Run) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Runs")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range reportHeader {
		header.AddCell().SetString(h)
	}

	for _, run := range runs {
		row := sheet.AddRow()
		row.AddCell().SetString(run.ID)
		row.AddCell().SetString(run.Scenario.Name)
		row.AddCell().SetString(string(run.Status))
		row.AddCell().SetFloat(run.Scenario.Lat)
		row.AddCell().SetFloat(run.Scenario.Lon)
		row.AddCell().SetFloat(run.Scenario.DiameterM)
		row.AddCell().SetFloat(run.Scenario.VelocityKmS)

		if run.Result != nil {
			row.AddCell().SetFloat(run.Result.CraterKM)
			row.AddCell().SetFloat(run.Result.BlastKM)
			row.AddCell().SetFloat(run.Result.ThermalKM)
			row.AddCell().SetFloat(run.Result.RadiusKM)
			row.AddCell().SetFloat(run.Result.Population)
			row.AddCell().SetString(run.Result.Error)
		} else {
			for range 6 {
				row.AddCell()
			}
		}
		row.AddCell().SetString(run.CreatedAt.Format(time.RFC3339))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}
