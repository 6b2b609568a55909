package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/memdoc"
	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

const revisionAuthor = "redline"

// revIDBase keeps generated revision ids above any the source document is
// likely to carry already.
const revIDBase = 10000

// documentXML splices the current state of the document back into the
// original word/document.xml. Paragraphs the edits never touched are kept
// byte for byte, so their run and paragraph formatting survives; touched
// paragraphs are re-rendered with tracked edits as w:ins/w:del revisions
// and manual markup as run formatting.
func (d *Document) documentXML() string {
	current := d.Contents()
	revs := d.Revisions()
	marks := d.Marks()
	if len(d.paraSpans) == 0 {
		return string(d.rawDoc)
	}

	clines := strings.Split(current, "\n")

	cspans := make([]span, len(clines))
	off := 0
	for i, l := range clines {
		cspans[i] = span{off, off + len(l)}
		off += len(l) + 1
	}

	date := time.Now().UTC().Format(time.RFC3339)
	revID := revIDBase

	// changed maps an original paragraph index to its replacement XML, ""
	// meaning the paragraph was removed. inserts holds new paragraphs keyed
	// by the original paragraph they follow, -1 for the top of the body.
	changed := map[int]string{}
	inserts := map[int][]string{}

	render := func(ci, oi int) string {
		var b strings.Builder
		renderParagraph(&b, current, cspans[ci].start, cspans[ci].end, revs, marks, &revID, date, d.paraProps(oi))
		return b.String()
	}

	diffs := lineDiff(d.original, current)
	oi, ci := 0, 0
	for i := 0; i < len(diffs); i++ {
		n := lineUnits(diffs[i].Text)
		switch diffs[i].Type {
		case diffmatchpatch.DiffEqual:
			for k := 0; k < n; k++ {
				// Identical text can still carry a revision or mark, for
				// example a tracked replacement by the same words.
				if lineTouched(cspans[ci+k], revs, marks) {
					changed[oi+k] = render(ci+k, oi+k)
				}
			}
			oi += n
			ci += n
		case diffmatchpatch.DiffDelete:
			// A delete run followed by an insert run is a modified block of
			// paragraphs. Pair them up so each rewritten paragraph lands in
			// its predecessor's slot and keeps its paragraph properties.
			ins := 0
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				ins = lineUnits(diffs[i+1].Text)
				i++
			}
			paired := n
			if ins < paired {
				paired = ins
			}
			for k := 0; k < paired; k++ {
				changed[oi+k] = render(ci+k, oi+k)
			}
			for k := paired; k < n; k++ {
				changed[oi+k] = ""
			}
			for k := paired; k < ins; k++ {
				inserts[oi+n-1] = append(inserts[oi+n-1], render(ci+k, -1))
			}
			oi += n
			ci += ins
		case diffmatchpatch.DiffInsert:
			for k := 0; k < n; k++ {
				inserts[oi-1] = append(inserts[oi-1], render(ci+k, -1))
			}
			ci += n
		}
	}

	var b bytes.Buffer
	b.Write(d.rawDoc[:d.paraSpans[0].start])
	for _, p := range inserts[-1] {
		b.WriteString(p)
	}
	for j, sp := range d.paraSpans {
		if repl, ok := changed[j]; ok {
			b.WriteString(repl)
		} else {
			b.Write(d.rawDoc[sp.start:sp.end])
		}
		for _, p := range inserts[j] {
			b.WriteString(p)
		}
		next := len(d.rawDoc)
		if j+1 < len(d.paraSpans) {
			next = d.paraSpans[j+1].start
		}
		b.Write(d.rawDoc[sp.end:next])
	}
	return b.String()
}

// lineDiff aligns the original and current body texts paragraph by
// paragraph.
func lineDiff(original, current string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	c1, c2, lines := dmp.DiffLinesToChars(original, current)
	return dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lines)
}

// lineUnits counts whole lines in a line-mode diff chunk. Every chunk is a
// concatenation of newline-terminated lines, except the one holding the
// final line of the text.
func lineUnits(s string) int {
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// lineTouched reports whether any revision or mark span intersects the
// line.
func lineTouched(ls span, revs []memdoc.Revision, marks []memdoc.Mark) bool {
	for _, r := range revs {
		if r.Inserted == "" {
			if r.Offset >= ls.start && r.Offset <= ls.end {
				return true
			}
			continue
		}
		if r.Offset < ls.end && r.Offset+len(r.Inserted) > ls.start {
			return true
		}
	}
	for _, m := range marks {
		if m.Start < ls.end && m.End > ls.start {
			return true
		}
	}
	return false
}

// paraProps returns the w:pPr element of the original paragraph, so a
// re-rendered paragraph keeps its style and numbering.
func (d *Document) paraProps(j int) string {
	if j < 0 || j >= len(d.paraSpans) {
		return ""
	}
	p := d.rawDoc[d.paraSpans[j].start:d.paraSpans[j].end]
	i := bytes.Index(p, []byte("<w:pPr"))
	if i < 0 {
		return ""
	}
	rest := p[i:]
	gt := bytes.IndexByte(rest, '>')
	if gt < 0 {
		return ""
	}
	if rest[gt-1] == '/' {
		return string(rest[:gt+1])
	}
	end := bytes.Index(rest, []byte("</w:pPr>"))
	if end < 0 {
		return ""
	}
	return string(rest[:end+len("</w:pPr>")])
}

// renderParagraph writes one w:p element covering text[start:end]. The run
// list is cut at every revision and mark boundary so each run carries a
// single set of properties.
func renderParagraph(b *strings.Builder, text string, start, end int, revs []memdoc.Revision, marks []memdoc.Mark, revID *int, date string, pPr string) {
	b.WriteString("<w:p>")
	b.WriteString(pPr)

	cutSet := map[int]bool{start: true, end: true}
	for _, r := range revs {
		if r.Inserted == "" {
			if r.Offset >= start && r.Offset <= end {
				cutSet[r.Offset] = true
			}
			continue
		}
		addSpanCuts(cutSet, r.Offset, r.Offset+len(r.Inserted), start, end)
	}
	for _, m := range marks {
		addSpanCuts(cutSet, m.Start, m.End, start, end)
	}

	cuts := make([]int, 0, len(cutSet))
	for c := range cutSet {
		cuts = append(cuts, c)
	}
	sort.Ints(cuts)

	for i, a := range cuts {
		// Pure deletions anchored at this position.
		for _, r := range revs {
			if r.Inserted == "" && r.Deleted != "" && r.Offset == a {
				writeDel(b, r.Deleted, revID, date)
			}
		}

		if i == len(cuts)-1 {
			break
		}
		seg := text[a:cuts[i+1]]
		if seg == "" {
			continue
		}

		ins := insertionAt(revs, a)
		mark := markAt(marks, a)

		if ins != nil {
			// The replaced text precedes its replacement.
			if ins.Deleted != "" && ins.Offset == a {
				writeDel(b, ins.Deleted, revID, date)
			}
			*revID++
			fmt.Fprintf(b, `<w:ins w:id="%d" w:author="%s" w:date="%s">`, *revID, revisionAuthor, date)
		}
		writeRun(b, seg, mark)
		if ins != nil {
			b.WriteString("</w:ins>")
		}
	}

	b.WriteString("</w:p>")
}

// addSpanCuts records the clipped boundaries of [s, e) within [start, end).
func addSpanCuts(cuts map[int]bool, s, e, start, end int) {
	if e <= start || s >= end {
		return
	}
	if s < start {
		s = start
	}
	if e > end {
		e = end
	}
	cuts[s] = true
	cuts[e] = true
}

// insertionAt returns the insertion revision whose span covers offset.
func insertionAt(revs []memdoc.Revision, offset int) *memdoc.Revision {
	for i := range revs {
		r := &revs[i]
		if r.Inserted != "" && offset >= r.Offset && offset < r.Offset+len(r.Inserted) {
			return r
		}
	}
	return nil
}

// markAt returns the markup whose span covers offset.
func markAt(marks []memdoc.Mark, offset int) *domain.Markup {
	for i := range marks {
		if offset >= marks[i].Start && offset < marks[i].End {
			return &marks[i].Markup
		}
	}
	return nil
}

func writeRun(b *strings.Builder, text string, mark *domain.Markup) {
	b.WriteString("<w:r>")
	if mark != nil {
		b.WriteString("<w:rPr>")
		if mark.Underline {
			b.WriteString(`<w:u w:val="single"/>`)
		}
		if mark.Color != "" {
			fmt.Fprintf(b, `<w:color w:val="%s"/>`, strings.TrimPrefix(mark.Color, "#"))
		}
		b.WriteString("</w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(text))
	b.WriteString("</w:t></w:r>")
}

func writeDel(b *strings.Builder, text string, revID *int, date string) {
	*revID++
	fmt.Fprintf(b, `<w:del w:id="%d" w:author="%s" w:date="%s"><w:r><w:delText xml:space="preserve">`,
		*revID, revisionAuthor, date)
	xml.EscapeText(b, []byte(text))
	b.WriteString("</w:delText></w:r></w:del>")
}
