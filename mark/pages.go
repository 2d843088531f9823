package mark

import (
	"bytes"
	"fmt"
	"sort"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/pdfmark/common"
	"github.com/digitorus/pdfmark/internal/pdf"
	"github.com/digitorus/pdfmark/internal/render"
)

type pagePlan struct {
	number int
	page   pdflib.Value
	ref    pdf.Ref
	result *render.Result
}

// planPages synthesizes the watermark of every page without writing
// anything, so a failing page leaves no partial output behind.
func (context *MarkContext) planPages(w render.Watermark, shared render.Shared) ([]*pagePlan, error) {
	numPages := context.PDFReader.NumPage()
	plans := make([]*pagePlan, 0, numPages)
	seen := make(map[uint32]bool)

	for i := 1; i <= numPages; i++ {
		plan, err := context.planPage(i, w, shared)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		// A page object listed twice in the page tree is updated once.
		if seen[plan.ref.ID] {
			continue
		}
		seen[plan.ref.ID] = true
		plans = append(plans, plan)
	}
	return plans, nil
}

func (context *MarkContext) planPage(number int, w render.Watermark, shared render.Shared) (*pagePlan, error) {
	page := context.PDFReader.Page(number).V
	if page.Kind() != pdflib.Dict {
		return nil, &common.DocumentError{Msg: "page object not found"}
	}
	ref := pdf.RefOf(page)
	if ref.ID == 0 {
		return nil, &common.DocumentError{Msg: "page is not an indirect object"}
	}

	box, err := pdf.PageBox(page)
	if err != nil {
		return nil, &common.DocumentError{Msg: "no usable page size", Err: err}
	}

	content, err := pdf.ReadContent(page)
	if err != nil {
		return nil, &common.DocumentError{Msg: "unreadable page content", Err: err}
	}

	resources := pdf.Resources(page)
	result, err := render.Synthesize(w, render.Page{
		Box:            box,
		Content:        content,
		UsedFonts:      pdf.ResourceNames(resources, pdf.CategoryFont),
		UsedExtGStates: pdf.ResourceNames(resources, pdf.CategoryExtGState),
	}, shared)
	if err != nil {
		return nil, err
	}

	return &pagePlan{number: number, page: page, ref: ref, result: result}, nil
}

// writePage appends the watermark content stream and the updated page
// object.
func (context *MarkContext) writePage(plan *pagePlan) error {
	stream, err := context.createContentStream(plan.result.Operations)
	if err != nil {
		return err
	}
	contentID, err := context.AddObject(stream)
	if err != nil {
		return fmt.Errorf("failed to add content stream: %w", err)
	}

	update := createPageUpdate(plan, pdf.Ref{ID: contentID})
	if err := context.UpdateObject(plan.ref, update); err != nil {
		return fmt.Errorf("failed to update page object: %w", err)
	}
	return nil
}

// createPageUpdate serializes the page dictionary with the watermark stream
// appended to /Contents and the resources inlined and patched.
func createPageUpdate(plan *pagePlan, content pdf.Ref) []byte {
	var buf bytes.Buffer
	page := plan.page

	buf.WriteString("<<")
	for _, key := range page.Keys() {
		if key == "Contents" || key == "Resources" {
			continue
		}
		buf.WriteByte(' ')
		pdf.WriteName(&buf, key)
		buf.WriteByte(' ')
		pdf.WriteValue(&buf, plan.ref.ID, page.Key(key))
	}

	buf.WriteString(" /Resources ")
	writeResources(&buf, pdf.Resources(page), plan.result.Patch)

	buf.WriteString(" /Contents [")
	for _, ref := range contentRefs(page) {
		buf.WriteString(ref.String())
		buf.WriteByte(' ')
	}
	buf.WriteString(content.String())
	buf.WriteString("] >>")

	return buf.Bytes()
}

func contentRefs(page pdflib.Value) []pdf.Ref {
	contents := page.Key("Contents")
	switch contents.Kind() {
	case pdflib.Stream:
		return []pdf.Ref{pdf.RefOf(contents)}
	case pdflib.Array:
		var refs []pdf.Ref
		for i := 0; i < contents.Len(); i++ {
			if s := contents.Index(i); s.Kind() == pdflib.Stream {
				refs = append(refs, pdf.RefOf(s))
			}
		}
		return refs
	}
	return nil
}

// writeResources writes the effective resources of a page as a direct
// dictionary with the patch merged into the Font and ExtGState categories.
func writeResources(buf *bytes.Buffer, resources pdflib.Value, patch render.ResourcePatch) {
	owner := pdf.RefOf(resources).ID

	buf.WriteString("<<")
	for _, key := range resources.Keys() {
		if key == pdf.CategoryFont || key == pdf.CategoryExtGState {
			continue
		}
		buf.WriteByte(' ')
		pdf.WriteName(buf, key)
		buf.WriteByte(' ')
		pdf.WriteValue(buf, owner, resources.Key(key))
	}
	writeCategory(buf, pdf.CategoryFont, resources.Key(pdf.CategoryFont), patch.Fonts)
	writeCategory(buf, pdf.CategoryExtGState, resources.Key(pdf.CategoryExtGState), patch.ExtGStates)
	buf.WriteString(" >>")
}

func writeCategory(buf *bytes.Buffer, category string, existing pdflib.Value, add map[string]pdf.Ref) {
	buf.WriteByte(' ')
	pdf.WriteName(buf, category)
	buf.WriteString(" <<")

	if existing.Kind() == pdflib.Dict {
		owner := pdf.RefOf(existing).ID
		for _, key := range existing.Keys() {
			if _, ok := add[key]; ok {
				continue
			}
			buf.WriteByte(' ')
			pdf.WriteName(buf, key)
			buf.WriteByte(' ')
			pdf.WriteValue(buf, owner, existing.Key(key))
		}
	}

	names := make([]string, 0, len(add))
	for name := range add {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buf.WriteByte(' ')
		pdf.WriteName(buf, name)
		buf.WriteByte(' ')
		buf.WriteString(add[name].String())
	}
	buf.WriteString(" >>")
}
