// Package export renders an event's daily schedules into a paginated PDF
// ("feuille de route"). The transformation from rows to a document model is
// separated from rendering so the grouping, filtering and ordering rules
// are testable without touching PDF bytes.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/planner-suite/backend/internal/models"
)

// DefaultFilename is the download name used when the caller supplies none.
const DefaultFilename = "feuille-de-route.pdf"

// Options controls what ends up in the document.
type Options struct {
	// TargetGroups filters schedules: when non-empty, a schedule is kept
	// iff it carries one of these groups or is tagged "both". Empty keeps
	// everything.
	TargetGroups []models.TargetGroup
	// IncludeDetails adds a detail row (description, required skills) per
	// schedule when either is present.
	IncludeDetails bool
	// CompanyName is printed in the header when set.
	CompanyName string
}

// Document is the fully derived description of the output. Both the binary
// and the download-link call paths render from the same Document, so the
// two are guaranteed to produce identical output.
type Document struct {
	Title       string
	DateRange   string
	Location    string
	CompanyName string
	Days        []Day
	GeneratedAt time.Time
}

// Day is one day section in sorted order.
type Day struct {
	Date string
	Rows []Row
}

// Row is one schedule line.
type Row struct {
	TimeRange   string
	Title       string
	Mandatory   bool
	Location    string
	GroupLabel  string
	Responsible string
	Description string
	Skills      []string
}

// Filter applies the target-group rule: with a non-empty filter a schedule
// is kept iff it carries one of the requested groups or the "both" tag;
// with an empty filter every schedule is kept.
func Filter(schedules []models.DailySchedule, groups []models.TargetGroup) []models.DailySchedule {
	if len(groups) == 0 {
		return schedules
	}
	var out []models.DailySchedule
	for _, s := range schedules {
		if matchesAny(&s, groups) {
			out = append(out, s)
		}
	}
	return out
}

func matchesAny(s *models.DailySchedule, groups []models.TargetGroup) bool {
	for _, tg := range s.TargetGroups {
		if tg == models.GroupBoth {
			return true
		}
		for _, g := range groups {
			if tg == g {
				return true
			}
		}
	}
	return false
}

// GroupByDay partitions schedules by schedule date, preserving input order
// within each day.
func GroupByDay(schedules []models.DailySchedule) map[string][]models.DailySchedule {
	byDay := make(map[string][]models.DailySchedule)
	for _, s := range schedules {
		byDay[s.ScheduleDate] = append(byDay[s.ScheduleDate], s)
	}
	return byDay
}

// SortedDays returns the day keys ascending. ISO date strings sort
// lexicographically in chronological order.
func SortedDays(byDay map[string][]models.DailySchedule) []string {
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// GroupLabel derives the displayed audience label for a schedule's target
// groups.
func GroupLabel(groups []models.TargetGroup) string {
	var artistes, techniques bool
	for _, g := range groups {
		switch g {
		case models.GroupBoth:
			return "Tous"
		case models.GroupArtistes:
			artistes = true
		case models.GroupTechniques:
			techniques = true
		}
	}
	switch {
	case artistes && techniques:
		return "Artistes & Tech."
	case artistes:
		return "Artistes"
	case techniques:
		return "Techniques"
	}
	return "Non spécifié"
}

// BuildDocument derives the document model: filter, group by day, sort
// days ascending, keep in-day input order.
func BuildDocument(event *models.Event, schedules []models.DailySchedule, opts Options) Document {
	doc := Document{
		Title:       event.Title,
		DateRange:   fmt.Sprintf("Du %s au %s", event.StartDate, event.EndDate),
		Location:    event.Location,
		CompanyName: opts.CompanyName,
		GeneratedAt: time.Now(),
	}
	filtered := Filter(schedules, opts.TargetGroups)
	byDay := GroupByDay(filtered)
	for _, date := range SortedDays(byDay) {
		day := Day{Date: date}
		for _, s := range byDay[date] {
			row := Row{
				TimeRange:   s.StartTime + " - " + s.EndTime,
				Title:       s.Title,
				Mandatory:   s.IsMandatory,
				Location:    s.Location,
				GroupLabel:  GroupLabel(s.TargetGroups),
				Responsible: s.ResponsiblePerson,
			}
			if opts.IncludeDetails {
				row.Description = s.Description
				row.Skills = s.RequiredSkills
			}
			day.Rows = append(day.Rows, row)
		}
		doc.Days = append(doc.Days, day)
	}
	return doc
}

// Generate renders the complete PDF for an event's schedules.
func Generate(event *models.Event, schedules []models.DailySchedule, opts Options) ([]byte, error) {
	doc := BuildDocument(event, schedules, opts)
	return Render(doc, opts.IncludeDetails)
}

// Render produces the PDF bytes for a document: A4, a header block, one
// section per day, and a footer with generation timestamp and page x/y on
// every page. An empty document gets a placeholder instead of day sections.
func Render(doc Document, includeDetails bool) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(doc.Title), false)
	pdf.AliasNbPages("")

	footer := fmt.Sprintf("Généré le %s", doc.GeneratedAt.Format("02/01/2006 15:04"))
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(95, 10, tr(footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	renderHeader(pdf, tr, doc)

	if len(doc.Days) == 0 {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "I", 12)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 10, tr("Aucun planning disponible"), "", 1, "C", false, 0, "")
	} else {
		for _, day := range doc.Days {
			renderDay(pdf, tr, day, includeDetails)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderHeader(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	if doc.CompanyName != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 5, tr(doc.CompanyName), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 6, tr(doc.DateRange), "", 1, "L", false, 0, "")
	if doc.Location != "" {
		pdf.CellFormat(0, 6, tr(doc.Location), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

var columns = []struct {
	label string
	width float64
}{
	{"Horaire", 28},
	{"Titre", 62},
	{"Lieu", 34},
	{"Groupe", 28},
	{"Responsable", 38},
}

func renderDay(pdf *fpdf.Fpdf, tr func(string) string, day Day, includeDetails bool) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(0, 8, tr(formatDay(day.Date)), "", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(250, 250, 250)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, tr(col.label), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(50, 50, 50)
	for _, row := range day.Rows {
		title := row.Title
		if row.Mandatory {
			title += " [Obligatoire]"
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(columns[0].width, 7, tr(row.TimeRange), "1", 0, "L", false, 0, "")
		pdf.CellFormat(columns[1].width, 7, tr(title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(columns[2].width, 7, tr(row.Location), "1", 0, "L", false, 0, "")
		pdf.CellFormat(columns[3].width, 7, tr(row.GroupLabel), "1", 0, "L", false, 0, "")
		pdf.CellFormat(columns[4].width, 7, tr(row.Responsible), "1", 1, "L", false, 0, "")

		if includeDetails && (row.Description != "" || len(row.Skills) > 0) {
			pdf.SetFont("Helvetica", "I", 8)
			detail := row.Description
			if len(row.Skills) > 0 {
				if detail != "" {
					detail += ". "
				}
				detail += "Compétences: " + strings.Join(row.Skills, ", ")
			}
			pdf.CellFormat(columns[0].width, 6, "", "1", 0, "L", false, 0, "")
			pdf.MultiCell(totalWidth()-columns[0].width, 6, tr(detail), "1", "L", false)
		}
	}
}

func totalWidth() float64 {
	var w float64
	for _, col := range columns {
		w += col.width
	}
	return w
}

// formatDay turns an ISO date into the printed day heading. An unparsable
// date is printed as-is.
func formatDay(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return frenchWeekday(t.Weekday()) + " " + t.Format("02/01/2006")
}

func frenchWeekday(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "Lundi"
	case time.Tuesday:
		return "Mardi"
	case time.Wednesday:
		return "Mercredi"
	case time.Thursday:
		return "Jeudi"
	case time.Friday:
		return "Vendredi"
	case time.Saturday:
		return "Samedi"
	}
	return "Dimanche"
}
