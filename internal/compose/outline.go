package compose

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

const outlineContextRunes = 60

// outlineFor builds one level-1 node per non-empty group and one child per
// entry pointing at its source page.
func outlineFor(groups []group, contextChars int) []Bookmark {
	runes := min(contextChars, outlineContextRunes)
	out := make([]Bookmark, 0, len(groups))
	for _, g := range groups {
		if len(g.Entries) == 0 {
			continue
		}
		bm := Bookmark{
			Title: fmt.Sprintf("%s (%d)", g.Key, len(g.Entries)),
			Page:  g.Entries[0].Page,
		}
		for _, e := range g.Entries {
			title := fmt.Sprintf("Seite %d", e.Page)
			if ctx := truncate(e.Context, runes); ctx != "" {
				title += ": " + ctx
			}
			bm.Children = append(bm.Children, Bookmark{Title: title, Page: e.Page})
		}
		out = append(out, bm)
	}
	return out
}

// writeOutline replaces the document outline with bookmarks. Level-1 nodes
// start closed.
func writeOutline(pctx *model.Context, bookmarks []Bookmark) error {
	catalog, err := pctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(bookmarks) == 0 {
		delete(catalog, "Outlines")
		return nil
	}

	root := types.Dict{"Type": types.Name("Outlines")}
	rootRef, err := pctx.IndRefForNewObject(root)
	if err != nil {
		return fmt.Errorf("failed to add outline root: %w", err)
	}
	first, last, err := writeOutlineItems(pctx, bookmarks, *rootRef)
	if err != nil {
		return err
	}
	root["First"] = *first
	root["Last"] = *last
	root["Count"] = types.Integer(len(bookmarks))

	catalog["Outlines"] = *rootRef
	catalog["PageMode"] = types.Name("UseOutlines")
	return nil
}

func writeOutlineItems(pctx *model.Context, bookmarks []Bookmark, parent types.IndirectRef) (*types.IndirectRef, *types.IndirectRef, error) {
	var first, prev *types.IndirectRef
	var prevDict types.Dict
	for _, bm := range bookmarks {
		_, pageRef, _, err := pctx.PageDict(bm.Page, false)
		if err != nil || pageRef == nil {
			return nil, nil, fmt.Errorf("failed to resolve bookmark page %d: %v", bm.Page, err)
		}
		item := types.Dict{
			"Title":  textString(bm.Title),
			"Parent": parent,
			"Dest":   types.Array{*pageRef, types.Name("Fit")},
		}
		ref, err := pctx.IndRefForNewObject(item)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to add bookmark: %w", err)
		}
		if len(bm.Children) > 0 {
			kidFirst, kidLast, err := writeOutlineItems(pctx, bm.Children, *ref)
			if err != nil {
				return nil, nil, err
			}
			item["First"] = *kidFirst
			item["Last"] = *kidLast
			item["Count"] = types.Integer(-len(bm.Children))
		}
		if prev != nil {
			prevDict["Next"] = *ref
			item["Prev"] = *prev
		} else {
			first = ref
		}
		prev, prevDict = ref, item
	}
	return first, prev, nil
}

// ReadOutline returns the outline of a PDF together with its page count.
func ReadOutline(data []byte) ([]Bookmark, int, error) {
	pctx, err := api.ReadContext(bytes.NewReader(data), document.ValidationConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, 0, fmt.Errorf("failed to validate PDF: %w", err)
	}

	pageOf := make(map[int]int, pctx.PageCount)
	for n := 1; n <= pctx.PageCount; n++ {
		_, ref, _, err := pctx.PageDict(n, false)
		if err == nil && ref != nil {
			pageOf[ref.ObjectNumber.Value()] = n
		}
	}

	catalog, err := pctx.Catalog()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read catalog: %w", err)
	}
	obj, ok := catalog["Outlines"]
	if !ok {
		return nil, pctx.PageCount, nil
	}
	root, err := pctx.DereferenceDict(obj)
	if err != nil || root == nil {
		return nil, pctx.PageCount, err
	}
	bms, err := readOutlineItems(pctx, root["First"], pageOf, 0)
	return bms, pctx.PageCount, err
}

func readOutlineItems(pctx *model.Context, obj types.Object, pageOf map[int]int, depth int) ([]Bookmark, error) {
	var out []Bookmark
	for obj != nil && depth < 8 {
		item, err := pctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to read bookmark: %w", err)
		}
		if item == nil {
			break
		}
		title, err := pctx.Dereference(item["Title"])
		if err != nil {
			return nil, err
		}
		bm := Bookmark{Title: decodeTextString(title)}
		if dest, err := pctx.DereferenceArray(item["Dest"]); err == nil && len(dest) > 0 {
			if ref, ok := dest[0].(types.IndirectRef); ok {
				bm.Page = pageOf[ref.ObjectNumber.Value()]
			}
		}
		if kids, ok := item["First"]; ok {
			bm.Children, err = readOutlineItems(pctx, kids, pageOf, depth+1)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, bm)
		obj = item["Next"]
	}
	return out, nil
}
