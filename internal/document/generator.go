// Package document renders an extracted participant roster as a
// right-to-left XLSX workbook.
package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/physioform/internal/extract"
	"github.com/ppiankov/physioform/internal/model"
)

// ContentType is the MIME type of rendered documents
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetName    = "משתתפים"
	defaultTitle = "משתתפים"
	totalLabel   = `סה"כ`
)

// Headers are the table columns. The sheet is right-to-left, so the first
// header is the rightmost column on screen.
var Headers = []string{"שם", "תעודת זהות", "מספר קבלה", "סכום"}

var (
	// ErrNoParticipants is returned when there is nothing to render
	ErrNoParticipants = eris.New("no participants to render")

	// ErrInvalidDate is returned for an unparseable date override
	ErrInvalidDate = eris.New("invalid date")
)

var dateLayouts = []string{"2006-01-02", "2006-01", "02/01/2006"}

// ParseDate accepts YYYY-MM-DD, YYYY-MM and DD/MM/YYYY
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Wrapf(ErrInvalidDate, "%q", s)
}

// Generator renders rosters
type Generator struct {
	now func() time.Time
}

// NewGenerator returns a generator using the local clock
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Title returns "<first participant> - <month>". The default title stands in
// for the name when the first participant has none.
func Title(participants []model.ParticipantRecord, month string) string {
	name := defaultTitle
	if len(participants) > 0 && strings.TrimSpace(participants[0].Name) != "" {
		name = participants[0].Name
	}
	return name + " - " + month
}

// Filename returns physiotherapy_form_<suffix>_<YYYYmmdd_HHMMSS>.xlsx. Rosters
// without a post-birth activity are filed as pregnancy.
func (g *Generator) Filename(activity *model.ActivityType) string {
	suffix := model.ActivityPregnancy.FileSuffix()
	if activity != nil && *activity == model.ActivityPostBirth {
		suffix = activity.FileSuffix()
	}
	return fmt.Sprintf("physiotherapy_form_%s_%s.xlsx", suffix, g.now().Format("20060102_150405"))
}

// Render builds the workbook. date is an optional override selecting the
// title month; the current month is used when it is empty.
func (g *Generator) Render(participants []model.ParticipantRecord, activity *model.ActivityType, date string) ([]byte, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	when := g.now()
	if strings.TrimSpace(date) != "" {
		t, err := ParseDate(date)
		if err != nil {
			return nil, err
		}
		when = t
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, eris.Wrap(err, "rename sheet")
	}
	rtl := true
	if err := f.SetSheetView(SheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, eris.Wrap(err, "set sheet view")
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: SheetName}

	// title and activity rows span the table
	w.set(1, 1, Title(participants, model.HebrewMonth(when.Month())))
	w.merge(1, styles.title)
	label := ""
	if activity != nil {
		label = string(*activity)
	}
	w.set(1, 2, label)
	w.merge(2, styles.subtitle)

	const headerRow = 3
	for i, h := range Headers {
		w.set(i+1, headerRow, h)
	}
	w.style(headerRow, styles.header)

	row := headerRow + 1
	var total float64
	for _, p := range participants {
		w.set(1, row, p.Name)
		w.set(2, row, p.NationalID)
		w.set(3, row, p.ReceiptNumber)
		if v, ok := amountValue(p.Amount); ok {
			w.set(4, row, v)
			total += v
		} else {
			w.set(4, row, p.Amount)
		}
		w.style(row, styles.cell)
		row++
	}

	w.set(1, row, totalLabel)
	w.set(4, row, total)
	w.style(row, styles.total)

	if w.err != nil {
		return nil, eris.Wrap(w.err, "write cells")
	}

	_ = f.SetColWidth(SheetName, "A", "A", 24)
	_ = f.SetColWidth(SheetName, "B", "C", 16)
	_ = f.SetColWidth(SheetName, "D", "D", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "xlsx write")
	}
	return buf.Bytes(), nil
}

func amountValue(s string) (float64, bool) {
	s = extract.NormalizeAmount(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// sheetWriter keeps the first error of a run of cell writes
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, v)
}

func (w *sheetWriter) merge(row, style int) {
	if w.err != nil {
		return
	}
	first, last := rowBounds(row)
	if w.err = w.f.MergeCell(w.sheet, first, last); w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, first, last, style)
}

func (w *sheetWriter) style(row, style int) {
	if w.err != nil {
		return
	}
	first, last := rowBounds(row)
	w.err = w.f.SetCellStyle(w.sheet, first, last, style)
}

func rowBounds(row int) (string, string) {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(Headers), row)
	return first, last
}

type styleSet struct {
	title, subtitle, header, cell, total int
}

func newStyles(f *excelize.File) (styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", ReadingOrder: 2}

	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 16}, Alignment: center},
		{Font: &excelize.Font{Size: 12, Italic: true}, Alignment: center},
		{
			Font:      &excelize.Font{Bold: true},
			Alignment: center,
			Border:    border,
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		},
		{Alignment: center, Border: border},
		{Font: &excelize.Font{Bold: true}, Alignment: center, Border: border},
	}

	ids := make([]int, len(defs))
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return styleSet{}, eris.Wrap(err, "create style")
		}
		ids[i] = id
	}
	return styleSet{title: ids[0], subtitle: ids[1], header: ids[2], cell: ids[3], total: ids[4]}, nil
}
