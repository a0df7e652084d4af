package compose

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

var (
	colorOriginal = []float64{1, 0.92, 0.23}
	colorExpanded = []float64{0.55, 0.78, 1}
)

// highlightEntry adds one /Highlight annotation per line box of every term
// on the entry's page and returns how many were added.
func highlightEntry(pctx *model.Context, doc *document.Document, e Entry) (int, error) {
	original := make(map[string]bool, len(e.Original))
	for _, t := range e.Original {
		original[strings.ToLower(t)] = true
	}

	var annots []types.Dict
	for _, term := range e.Terms {
		color := colorExpanded
		if original[strings.ToLower(term)] {
			color = colorOriginal
		}
		for _, box := range doc.BoxesOnPage(e.Page, term) {
			if box.IsZero() {
				continue
			}
			annots = append(annots, highlightDict(box, color, term))
		}
	}
	if len(annots) == 0 {
		return 0, nil
	}

	pageDict, pageRef, _, err := pctx.PageDict(e.Page, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get page %d: %w", e.Page, err)
	}
	if pageDict == nil || pageRef == nil {
		return 0, fmt.Errorf("page %d not found", e.Page)
	}

	var existing types.Array
	if obj, found := pageDict["Annots"]; found && obj != nil {
		existing, err = pctx.DereferenceArray(obj)
		if err != nil {
			return 0, fmt.Errorf("failed to read annotations of page %d: %w", e.Page, err)
		}
	}

	for _, d := range annots {
		d["P"] = *pageRef
		ref, err := pctx.IndRefForNewObject(d)
		if err != nil {
			return 0, fmt.Errorf("failed to add annotation: %w", err)
		}
		existing = append(existing, *ref)
	}
	pageDict["Annots"] = existing
	return len(annots), nil
}

func highlightDict(box document.BBox, color []float64, term string) types.Dict {
	return types.Dict{
		"Type":       types.Name("Annot"),
		"Subtype":    types.Name("Highlight"),
		"Rect":       types.NewNumberArray(box.X0, box.Y0, box.X1, box.Y1),
		"QuadPoints": types.NewNumberArray(box.X0, box.Y1, box.X1, box.Y1, box.X0, box.Y0, box.X1, box.Y0),
		"C":          types.NewNumberArray(color...),
		"CA":         types.Float(0.5),
		"F":          types.Integer(4),
		"T":          textString("Ampel"),
		"Contents":   textString(term),
		"NM":         types.StringLiteral(uuid.NewString()),
	}
}
