package importer

import (
	"strconv"

	channel "Culvert/internal/calc/channel"
	batch "Culvert/internal/calc/premium/batch"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Channels"

var exportHeader = append(append([]string{}, Header...), "tau (N/m2)", "V (m/s)", "calculated", "error")

// number formats per column, matching the calculation sheet precision
var numFormats = map[string]string{
	"B": "0.0000",
	"C": "0.00",
	"D": "0.00000",
	"E": "0.0000",
	"F": "0.0000",
	"G": "0",
	"H": "0.00",
	"I": "0.00",
}

func buildWorkbook(items []channel.Input, results []batch.Item) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		f.Close()
		return nil, err
	}

	for i, item := range results {
		row := rowValues(items[i], item)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	last := len(results) + 1
	for col, format := range numFormats {
		numFmt := format
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			f.Close()
			return nil, err
		}
		if last < 2 {
			continue
		}
		if err := f.SetCellStyle(sheetName, col+"2", col+strconv.Itoa(last), style); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func rowValues(in channel.Input, item batch.Item) []interface{} {
	if item.Result == nil {
		msg := ""
		if item.Error != nil {
			msg = item.Error.Error()
		}
		return []interface{}{string(in.Target), in.DiameterM, in.RelativeDepth, in.Slope, in.Roughness, in.FlowRateM3S, in.SpecificWeightNM3, nil, nil, "", msg}
	}
	r := item.Result
	return []interface{}{
		string(r.Target), r.DiameterM, r.RelativeDepth, r.Slope, r.Roughness, r.FlowRateM3S,
		r.SpecificWeightNM3, r.ShearStressNM2, r.VelocityMS, r.Target.Label(), "",
	}
}
