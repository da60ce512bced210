package filter_test

import (
	"reflect"
	"testing"

	"github.com/rsilvagit/go-empleo/internal/filter"
	"github.com/rsilvagit/go-empleo/internal/model"
)

func ptr[T any](v T) *T { return &v }

func ids(jobs []model.JobPosting) []model.JobID {
	out := make([]model.JobID, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

// ── Apply ──────────────────────────────────────────────────────────────────

func TestApply_RemoteOnlyKeepsOriginal(t *testing.T) {
	loaded := make([]model.JobPosting, 8)
	for i := range loaded {
		loaded[i] = model.JobPosting{ID: model.JobID(string(rune('a' + i))), Remote: ptr(i%3 == 0)}
	}
	before := append([]model.JobPosting(nil), loaded...)

	got := filter.Apply(loaded, filter.Filters{RemoteOnly: true})

	if want := []model.JobID{"a", "d", "g"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("visible = %v, want %v", ids(got), want)
	}
	if !reflect.DeepEqual(loaded, before) {
		t.Error("loaded set was modified")
	}
}

func TestApply(t *testing.T) {
	jobs := []model.JobPosting{
		{ID: "1", Location: "Madrid, España", Type: model.FullTime, Salary: &model.Salary{Min: 30000, Max: 40000}},
		{ID: "2", Location: "Barcelona", Type: model.PartTime, Salary: &model.Salary{Min: 15000, Max: 20000}},
		{ID: "3", Location: "Lima", Type: model.FullTime},
		{ID: "4", Location: "Ciudad de México", Type: model.Contract, Salary: &model.Salary{Min: 50000, Max: 70000}, Remote: ptr(true)},
	}

	cases := []struct {
		name    string
		filters filter.Filters
		want    []model.JobID
	}{
		{"no filters", filter.Filters{}, []model.JobID{"1", "2", "3", "4"}},
		{"query alone does not refine", filter.Filters{Query: "go"}, []model.JobID{"1", "2", "3", "4"}},
		{"location case-insensitive", filter.Filters{Location: "madrid"}, []model.JobID{"1"}},
		{"location alternatives", filter.Filters{Location: "lima, barcelona"}, []model.JobID{"2", "3"}},
		{"type exact", filter.Filters{Type: model.FullTime}, []model.JobID{"1", "3"}},
		{"salary floor overlaps", filter.Filters{SalaryMin: ptr(35000.0)}, []model.JobID{"1", "4"}},
		{"salary ceiling overlaps", filter.Filters{SalaryMax: ptr(30000.0)}, []model.JobID{"1", "2"}},
		{"salary range", filter.Filters{SalaryMin: ptr(18000.0), SalaryMax: ptr(45000.0)}, []model.JobID{"1", "2"}},
		{"inverted range is swapped", filter.Filters{SalaryMin: ptr(45000.0), SalaryMax: ptr(18000.0)}, []model.JobID{"1", "2"}},
		{"combined", filter.Filters{Location: "méxico", RemoteOnly: true, Type: model.Contract}, []model.JobID{"4"}},
		{"nothing matches", filter.Filters{Location: "Tokio"}, []model.JobID{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ids(filter.Apply(jobs, c.filters))
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("Apply = %v, want %v", got, c.want)
			}
		})
	}
}

func TestApply_NeverAliasesInput(t *testing.T) {
	jobs := []model.JobPosting{{ID: "1"}, {ID: "2"}}
	got := filter.Apply(jobs, filter.Filters{})
	got[0].ID = "changed"
	if jobs[0].ID != "1" {
		t.Error("Apply returned the input backing array")
	}
}

func TestFilters_Active(t *testing.T) {
	if filter.Defaults().Active() {
		t.Error("defaults reported active")
	}
	if !(filter.Filters{SalaryMax: ptr(1.0)}).Active() {
		t.Error("salary ceiling not reported active")
	}
	if (filter.Filters{Query: "   "}).Active() {
		t.Error("whitespace query reported active")
	}
}

// ── State ──────────────────────────────────────────────────────────────────

func TestState_ClearIsAtomicAndIdempotent(t *testing.T) {
	s := filter.NewState()
	s.SetQuery("go")
	s.SetLocation("Madrid")
	s.SetType(model.Remote)
	s.SetRemoteOnly(true)
	s.SetSalaryMin(ptr(10000.0))
	s.SetSalaryMax(ptr(90000.0))

	var notified []filter.Filters
	s.Subscribe(func(f filter.Filters) { notified = append(notified, f) })

	s.Clear()
	once := s.Filters()
	s.Clear()
	twice := s.Filters()

	if !reflect.DeepEqual(once, filter.Defaults()) {
		t.Errorf("after Clear = %+v", once)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Clear not idempotent: %+v vs %+v", once, twice)
	}
	if len(notified) != 2 {
		t.Fatalf("notifications = %d, want one per Clear", len(notified))
	}
	if notified[0].Active() {
		t.Error("subscriber saw a partially cleared state")
	}
}

func TestState_SnapshotsAreIndependent(t *testing.T) {
	s := filter.NewState()
	floor := 20000.0
	s.SetSalaryMin(&floor)
	floor = 1

	snap := s.Filters()
	if *snap.SalaryMin != 20000 {
		t.Errorf("state tracked caller's pointer: %v", *snap.SalaryMin)
	}
	*snap.SalaryMin = 5
	if *s.Filters().SalaryMin != 20000 {
		t.Error("snapshot mutation leaked into state")
	}
}

func TestState_SubscriberSeesEveryChange(t *testing.T) {
	s := filter.NewState()
	var last filter.Filters
	calls := 0
	s.Subscribe(func(f filter.Filters) { last, calls = f, calls+1 })

	s.SetLocation("Lima")
	s.Replace(filter.Filters{RemoteOnly: true})

	if calls != 2 || !last.RemoteOnly || last.Location != "" {
		t.Errorf("calls=%d last=%+v", calls, last)
	}
}

func TestState_SubscribeFromNotification(t *testing.T) {
	s := filter.NewState()
	var late []filter.Filters
	s.Subscribe(func(filter.Filters) {
		if late == nil {
			late = []filter.Filters{}
			s.Subscribe(func(f filter.Filters) { late = append(late, f) })
		}
	})

	s.SetQuery("go")
	if len(late) != 0 {
		t.Fatalf("subscriber added mid-notification saw the current change: %+v", late)
	}
	s.SetQuery("rust")
	if len(late) != 1 || late[0].Query != "rust" {
		t.Errorf("late subscriber saw %+v", late)
	}
}
