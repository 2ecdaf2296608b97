package importer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	channel "Culvert/internal/calc/channel"
	batch "Culvert/internal/calc/premium/batch"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const MaxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Solver   batch.Solver
	MaxItems int
	Workers  int
	Log      *zap.Logger
}

type RowResult struct {
	Row int `json:"row"`
	batch.Item
}

type ChannelImportResult struct {
	Count   int         `json:"count"`
	Failed  int         `json:"failed"`
	Results []RowResult `json:"results"`
}

// Import solves every data row of the first sheet of an uploaded workbook.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		http.Error(w, "Empty sheet", http.StatusBadRequest)
		return
	}

	var (
		inputs  []channel.Input
		rowNums []int
		out     ChannelImportResult
	)
	for i := 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		input, err := parseChannelRow(rows[i])
		if err != nil {
			out.Results = append(out.Results, RowResult{Row: i + 1, Item: batch.Item{
				Error: &channel.Error{Kind: channel.KindInvalidInput, Message: err.Error()},
			}})
			continue
		}
		inputs = append(inputs, input)
		rowNums = append(rowNums, i+1)
	}
	if h.MaxItems > 0 && len(inputs) > h.MaxItems {
		http.Error(w, fmt.Sprintf("Too many rows (max %d)", h.MaxItems), http.StatusBadRequest)
		return
	}

	if len(inputs) > 0 {
		res, err := batch.CalculateChannel(r.Context(), h.Solver, batch.ChannelBatchInput{Items: inputs}, h.Workers)
		if err != nil {
			http.Error(w, "Calculation error", http.StatusBadRequest)
			return
		}
		for i, item := range res.Results {
			out.Results = append(out.Results, RowResult{Row: rowNums[i], Item: item})
		}
	}
	sort.Slice(out.Results, func(i, j int) bool { return out.Results[i].Row < out.Results[j].Row })
	for _, rr := range out.Results {
		if rr.Error != nil {
			out.Failed++
		} else {
			out.Count++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Export solves the posted items and returns them as a workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var input batch.ChannelBatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if h.MaxItems > 0 && len(input.Items) > h.MaxItems {
		http.Error(w, fmt.Sprintf("Too many items (max %d)", h.MaxItems), http.StatusBadRequest)
		return
	}
	res, err := batch.CalculateChannel(r.Context(), h.Solver, input, h.Workers)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}

	f, err := buildWorkbook(input.Items, res.Results)
	if err != nil {
		h.logger().Error("build workbook", zap.Error(err))
		http.Error(w, "Export error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"channels.xlsx\"")
	if err := f.Write(w); err != nil {
		h.logger().Error("write workbook", zap.Error(err))
	}
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Header is the column layout shared by import and export.
var Header = []string{"target", "D (m)", "y/D", "S (m/m)", "n", "Q (m3/s)", "gamma (N/m3)"}

func parseChannelRow(row []string) (channel.Input, error) {
	// expected: target, D, yD, S, n, Q, gamma; trailing blank cells are dropped by the reader
	if len(row) < 5 {
		return channel.Input{}, fmt.Errorf("bad row: want at least 5 columns, got %d", len(row))
	}
	target, err := channel.ParseTarget(row[0])
	if err != nil {
		return channel.Input{}, err
	}
	vals := make([]float64, 6)
	for i := 1; i < len(row) && i <= 6; i++ {
		if strings.TrimSpace(row[i]) == "" {
			continue
		}
		v, err := toFloat(row[i])
		if err != nil {
			return channel.Input{}, fmt.Errorf("column %s: %q is not a number", Header[i], row[i])
		}
		vals[i-1] = v
	}
	return channel.Input{
		Target:            target,
		DiameterM:         vals[0],
		RelativeDepth:     vals[1],
		Slope:             vals[2],
		Roughness:         vals[3],
		FlowRateM3S:       vals[4],
		SpecificWeightNM3: vals[5],
	}, nil
}

// toFloat accepts a decimal comma; anything else left in the cell is an error.
func toFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(strings.Replace(s, ",", ".", 1)), 64)
}
