package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	channel "Culvert/internal/calc/channel"

	"github.com/go-playground/validator/v10"
	"github.com/phpdave11/gofpdf"
)

// validate is shared by all requests.
var validate = validator.New()

// Solver is satisfied by *channel.Handler.
type Solver interface {
	Solve(ctx context.Context, in channel.Input) (channel.Result, error)
}

type Input struct {
	Project string        `json:"project" validate:"max=200"`
	Author  string        `json:"author" validate:"max=200"`
	Title   string        `json:"title" validate:"max=200"`
	Notes   string        `json:"notes" validate:"max=5000"`
	Input   channel.Input `json:"input"`
}

type Handler struct {
	Solver Solver
}

func NewHandler(s Solver) *Handler {
	return &Handler{Solver: s}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.Title == "" {
		input.Title = "Partially Full Pipe Flow"
	}

	res, err := h.Solver.Solve(r.Context(), input.Input)
	if err != nil {
		channel.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := Render(&buf, input, res, time.Now()); err != nil {
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"report.pdf\"")
	w.Write(buf.Bytes())
}

// Render writes a one-page calculation sheet for res.
func Render(buf *bytes.Buffer, input Input, res channel.Result, at time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	greek := strings.NewReplacer("τ", "tau", "θ", "theta", "γ", "gamma")
	text := func(s string) string { return tr(greek.Replace(s)) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, text(input.Title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, text(fmt.Sprintf("Project: %s", input.Project)))
	pdf.Ln(6)
	pdf.Cell(0, 6, text(fmt.Sprintf("Author: %s", input.Author)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", at.Format("2006-01-02")))
	pdf.Ln(10)

	section := func(title string, lines []string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, l := range lines {
			pdf.Cell(0, 6, text(l))
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	section("Solved for: "+res.Target.Label(), res.Summary())
	section("Section geometry", []string{
		fmt.Sprintf("Central angle (θ): %.4f rad", res.ThetaRad),
		fmt.Sprintf("Flow area (A): %.4f m²", res.AreaM2),
		fmt.Sprintf("Wetted perimeter (P): %.4f m", res.WettedPerimeterM),
		fmt.Sprintf("Hydraulic radius (R): %.4f m", res.HydraulicRadiusM),
		fmt.Sprintf("Specific weight (γ): %.0f N/m³", res.SpecificWeightNM3),
	})
	if res.Iterations > 0 {
		section("Solver", []string{fmt.Sprintf("Converged in %d iterations.", res.Iterations)})
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, text(res.Notes), "", "L", false)
	if input.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, text(input.Notes), "", "L", false)
	}
	return pdf.Output(buf)
}
