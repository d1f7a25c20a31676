package export

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planner-suite/backend/internal/models"
)

func sched(date, start, title string, groups ...models.TargetGroup) models.DailySchedule {
	return models.DailySchedule{
		ID:           uuid.New(),
		ScheduleDate: date,
		StartTime:    start,
		EndTime:      "23:00",
		Title:        title,
		TargetGroups: groups,
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	balance := sched("2025-07-10", "14:00", "Balance", models.GroupArtistes)
	montage := sched("2025-07-10", "08:00", "Montage", models.GroupTechniques)
	brief := sched("2025-07-11", "09:00", "Briefing", models.GroupBoth)

	tests := []struct {
		name   string
		filter []models.TargetGroup
		want   []string
	}{
		{"empty filter keeps all", nil, []string{"Balance", "Montage", "Briefing"}},
		{"artistes keeps artistes and both", []models.TargetGroup{models.GroupArtistes}, []string{"Balance", "Briefing"}},
		{"techniques keeps techniques and both", []models.TargetGroup{models.GroupTechniques}, []string{"Montage", "Briefing"}},
		{"both groups keeps everything", []models.TargetGroup{models.GroupArtistes, models.GroupTechniques}, []string{"Balance", "Montage", "Briefing"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Filter([]models.DailySchedule{balance, montage, brief}, tc.filter)
			var titles []string
			for _, s := range got {
				titles = append(titles, s.Title)
			}
			assert.Equal(t, tc.want, titles)
		})
	}
}

func TestGroupLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		groups []models.TargetGroup
		want   string
	}{
		{"both wins", []models.TargetGroup{models.GroupArtistes, models.GroupBoth}, "Tous"},
		{"artistes and techniques", []models.TargetGroup{models.GroupArtistes, models.GroupTechniques}, "Artistes & Tech."},
		{"artistes only", []models.TargetGroup{models.GroupArtistes}, "Artistes"},
		{"techniques only", []models.TargetGroup{models.GroupTechniques}, "Techniques"},
		{"none", nil, "Non spécifié"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, GroupLabel(tc.groups))
		})
	}
}

func TestBuildDocumentOrdersDaysAscending(t *testing.T) {
	t.Parallel()

	event := &models.Event{Title: "Tournée", StartDate: "2025-07-08", EndDate: "2025-07-12"}
	schedules := []models.DailySchedule{
		sched("2025-07-11", "10:00", "Jour trois", models.GroupBoth),
		sched("2025-07-09", "10:00", "Jour un a", models.GroupBoth),
		sched("2025-07-09", "15:00", "Jour un b", models.GroupBoth),
		sched("2025-07-10", "10:00", "Jour deux", models.GroupBoth),
	}
	doc := BuildDocument(event, schedules, Options{})

	require.Len(t, doc.Days, 3)
	assert.Equal(t, "2025-07-09", doc.Days[0].Date)
	assert.Equal(t, "2025-07-10", doc.Days[1].Date)
	assert.Equal(t, "2025-07-11", doc.Days[2].Date)
	// In-day input order is preserved.
	require.Len(t, doc.Days[0].Rows, 2)
	assert.Equal(t, "Jour un a", doc.Days[0].Rows[0].Title)
	assert.Equal(t, "Jour un b", doc.Days[0].Rows[1].Title)
}

func TestBuildDocumentDetails(t *testing.T) {
	t.Parallel()

	event := &models.Event{Title: "Concert", StartDate: "2025-03-01", EndDate: "2025-03-01"}
	s := sched("2025-03-01", "18:00", "Installation", models.GroupTechniques)
	s.Description = "Montage de la scène"
	s.RequiredSkills = []string{"rigging", "son"}

	withDetails := BuildDocument(event, []models.DailySchedule{s}, Options{IncludeDetails: true})
	require.Len(t, withDetails.Days, 1)
	row := withDetails.Days[0].Rows[0]
	assert.Equal(t, "Montage de la scène", row.Description)
	assert.Equal(t, []string{"rigging", "son"}, row.Skills)

	without := BuildDocument(event, []models.DailySchedule{s}, Options{})
	row = without.Days[0].Rows[0]
	assert.Empty(t, row.Description)
	assert.Empty(t, row.Skills)
}

// A festival day tagged for everyone plus an artistes-only slot, exported
// with an artistes filter: one day section, the mandatory badge on the
// shared slot, and the "Tous" audience label.
func TestFestivalArtistesExport(t *testing.T) {
	t.Parallel()

	event := &models.Event{
		Title:     "Festival X",
		StartDate: "2025-07-10",
		EndDate:   "2025-07-10",
		Location:  "Grande scène",
	}
	brief := sched("2025-07-10", "09:00", "Briefing général", models.GroupBoth)
	brief.IsMandatory = true
	balance := sched("2025-07-10", "14:00", "Balance", models.GroupArtistes)
	montage := sched("2025-07-10", "08:00", "Montage", models.GroupTechniques)

	doc := BuildDocument(event, []models.DailySchedule{brief, balance, montage},
		Options{TargetGroups: []models.TargetGroup{models.GroupArtistes}})

	require.Len(t, doc.Days, 1)
	require.Len(t, doc.Days[0].Rows, 2)
	assert.Equal(t, "Briefing général", doc.Days[0].Rows[0].Title)
	assert.True(t, doc.Days[0].Rows[0].Mandatory)
	assert.Equal(t, "Tous", doc.Days[0].Rows[0].GroupLabel)
	assert.Equal(t, "Balance", doc.Days[0].Rows[1].Title)
	assert.False(t, doc.Days[0].Rows[1].Mandatory)

	data, err := Render(doc, false)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

// An artistes-only schedule exported with a techniques filter leaves no
// days: the document renders the placeholder instead of day sections.
func TestFilterMismatchRendersPlaceholder(t *testing.T) {
	t.Parallel()

	event := &models.Event{Title: "Résidence", StartDate: "2025-05-01", EndDate: "2025-05-02"}
	doc := BuildDocument(event,
		[]models.DailySchedule{sched("2025-05-01", "10:00", "Répétition", models.GroupArtistes)},
		Options{TargetGroups: []models.TargetGroup{models.GroupTechniques}})

	assert.Empty(t, doc.Days)

	data, err := Render(doc, false)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.NotEmpty(t, data)
}

func TestGenerateProducesPDF(t *testing.T) {
	t.Parallel()

	event := &models.Event{Title: "Gala", StartDate: "2025-09-01", EndDate: "2025-09-02"}
	schedules := []models.DailySchedule{
		sched("2025-09-01", "10:00", "Accueil", models.GroupBoth),
		sched("2025-09-02", "10:00", "Démontage", models.GroupTechniques),
	}
	data, err := Generate(event, schedules, Options{CompanyName: "Compagnie Lumière"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestFormatDay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jeudi 10/07/2025", formatDay("2025-07-10"))
	assert.Equal(t, "not-a-date", formatDay("not-a-date"))
}
