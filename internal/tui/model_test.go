package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/tickets/internal/models"
	"github.com/mobil-koeln/tickets/internal/store"
	"github.com/mobil-koeln/tickets/internal/testutil"
)

func newTestModel() (Model, *testutil.FakeMutator) {
	mut := testutil.NewFakeMutator()
	m := New(mut)
	m.width = 100
	m.height = 30
	return m, mut
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

func snapshot(m Model, tickets ...models.Ticket) Model {
	m, _ = update(m, snapshotMsg{tickets: models.NewCollection(tickets)})
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(m, keyPress(k))
	}
	return m, cmd
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// runCmd executes a mutation command and feeds its result back.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = update(m, cmd())
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNew(t *testing.T) {
	m, _ := newTestModel()

	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.tickets.Len(), 0)
	testutil.AssertEqual(t, m.selectedID, "")
	testutil.AssertEqual(t, m.currentView(), viewList)
	testutil.AssertEqual(t, m.buttonLabel(), "Add Ticket")
	testutil.AssertEqual(t, m.mutationTimeout, defaultMutationTimeout)
	testutil.AssertEqual(t, m.noticeDuration, defaultNoticeDuration)
}

func TestNew_Options(t *testing.T) {
	feed := NewFeed()
	m := New(testutil.NewFakeMutator(),
		WithFeed(feed),
		WithMutationTimeout(2*time.Second),
		WithNoticeDuration(time.Second),
		WithNoticeDuration(0),
	)

	testutil.AssertTrue(t, m.feed == feed)
	testutil.AssertEqual(t, m.mutationTimeout, 2*time.Second)
	testutil.AssertEqual(t, m.noticeDuration, time.Second)
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel()
	testutil.AssertTrue(t, m.Init() != nil)
}

func TestModel_WindowSize(t *testing.T) {
	m := New(testutil.NewFakeMutator())

	testutil.AssertEqual(t, m.width, 0)
	testutil.AssertEqual(t, m.height, 0)

	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	testutil.AssertEqual(t, m.width, 120)
	testutil.AssertEqual(t, m.height, 40)
}

func TestDerivedView(t *testing.T) {
	tests := []struct {
		mode  mode
		view  viewKind
		label string
	}{
		{modeListing, viewList, "Add Ticket"},
		{modeCreating, viewCreate, "Return to Ticket List"},
		{modeViewing, viewDetail, "Return to Ticket List"},
		{modeEditing, viewEdit, "Return to Ticket List"},
		{modeFailed, viewError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			m, _ := newTestModel()
			m.mode = tt.mode
			testutil.AssertEqual(t, m.currentView(), tt.view)
			testutil.AssertEqual(t, m.buttonLabel(), tt.label)
		})
	}
}

func TestSnapshot_FullReplace(t *testing.T) {
	m, _ := newTestModel()

	m = snapshot(m, testutil.AliceTicket, testutil.BobTicket, testutil.CarolTicket)
	testutil.AssertEqual(t, m.tickets.Len(), 3)

	m = snapshot(m, testutil.CarolTicket)
	testutil.AssertEqual(t, m.tickets.Len(), 1)
	testutil.AssertEqual(t, m.tickets.At(0), testutil.CarolTicket)
	_, ok := m.tickets.Lookup("t0")
	testutil.AssertFalse(t, ok)

	m = snapshot(m)
	testutil.AssertEqual(t, m.tickets.Len(), 0)
}

func TestSnapshot_RecordsSyncTime(t *testing.T) {
	m, _ := newTestModel()
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	testutil.AssertTrue(t, m.synced.IsZero())
	m = snapshot(m, testutil.AliceTicket)
	testutil.AssertEqual(t, m.synced, fixed)
}

func TestSnapshot_RearmsFeed(t *testing.T) {
	m := New(testutil.NewFakeMutator(), WithFeed(NewFeed()))

	_, cmd := update(m, snapshotMsg{tickets: testutil.SampleCollection()})
	testutil.AssertTrue(t, cmd != nil)

	m = New(testutil.NewFakeMutator())
	_, cmd = update(m, snapshotMsg{tickets: testutil.SampleCollection()})
	testutil.AssertTrue(t, cmd == nil)
}

func TestSnapshot_ClampsCursor(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.SampleTickets()...)
	m.cursor = 2

	m = snapshot(m, testutil.AliceTicket)
	testutil.AssertEqual(t, m.cursor, 0)
}

func TestSnapshot_KeepsStaleSelection(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.AliceTicket, testutil.BobTicket)
	m, _ = m.selectTicket("t1")

	m = snapshot(m, testutil.AliceTicket)

	testutil.AssertEqual(t, m.mode, modeViewing)
	testutil.AssertEqual(t, m.selectedID, "t1")
	_, ok := m.selectedTicket()
	testutil.AssertFalse(t, ok)

	shown, live := m.displayedTicket()
	testutil.AssertFalse(t, live)
	testutil.AssertEqual(t, shown, testutil.BobTicket)
}

func TestSelectTicket_EveryTicket(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.SampleTickets()...)

	for _, want := range testutil.SampleTickets() {
		got, _ := m.selectTicket(want.ID)
		testutil.AssertEqual(t, got.mode, modeViewing)
		testutil.AssertEqual(t, got.currentView(), viewDetail)

		shown, live := got.displayedTicket()
		testutil.AssertTrue(t, live)
		testutil.AssertEqual(t, shown, want)
	}
}

func TestSelectTicket_Absent(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.AliceTicket)

	m, cmd := m.selectTicket("ghost")

	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")
	testutil.AssertEqual(t, m.notice, "Ticket ghost is no longer available")
	testutil.AssertTrue(t, cmd != nil)
}

func TestSelectTicket_FromList(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.SampleTickets()...)

	m, _ = press(m, "j", "enter")

	testutil.AssertEqual(t, m.mode, modeViewing)
	testutil.AssertEqual(t, m.selectedID, "t1")
}

func TestSelectTicket_EmptyList(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m)

	m, _ = press(m, "enter")
	testutil.AssertEqual(t, m.mode, modeListing)
}

func TestListNavigation(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.SampleTickets()...)

	m, _ = press(m, "k")
	testutil.AssertEqual(t, m.cursor, 0)

	m, _ = press(m, "j", "j", "j", "j")
	testutil.AssertEqual(t, m.cursor, 2)

	m, _ = press(m, "g")
	testutil.AssertEqual(t, m.cursor, 0)

	m, _ = press(m, "G")
	testutil.AssertEqual(t, m.cursor, 2)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyPgUp})
	testutil.AssertEqual(t, m.cursor, 0)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyPgDown})
	testutil.AssertEqual(t, m.cursor, 2)
}

func TestToggleFormOrReturn(t *testing.T) {
	m, _ := newTestModel()

	m, _ = m.toggleFormOrReturn()
	testutil.AssertEqual(t, m.mode, modeCreating)

	m, _ = m.toggleFormOrReturn()
	testutil.AssertEqual(t, m.mode, modeListing)
}

func TestToggleFormOrReturn_ClearsSelection(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.BobTicket)

	m, _ = m.selectTicket("t1")
	m, _ = m.requestEdit()
	testutil.AssertEqual(t, m.mode, modeEditing)

	m, _ = m.toggleFormOrReturn()
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")

	m, _ = m.selectTicket("t1")
	m, _ = press(m, "esc")
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")
}

func TestRequestEdit(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.BobTicket)

	// Only valid from the detail view
	m, _ = m.requestEdit()
	testutil.AssertEqual(t, m.mode, modeListing)

	m, _ = m.selectTicket("t1")
	m, _ = press(m, "e")

	testutil.AssertEqual(t, m.mode, modeEditing)
	testutil.AssertEqual(t, m.form.fields(), testutil.BobTicket.Fields())
}

func TestRequestEdit_Stale(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")
	m = snapshot(m)

	m, _ = m.requestEdit()

	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")
	testutil.AssertContains(t, m.notice, "t1")
}

func TestScenario_CreateTicket(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m)

	m, _ = m.toggleFormOrReturn()
	testutil.AssertEqual(t, m.mode, modeCreating)

	fields := models.Fields{Names: "Alice", Location: "Bldg A", Issue: "No power"}
	m, cmd := m.submitCreate(fields)
	testutil.AssertTrue(t, m.pending)

	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, mut.CallCount(), 1)
	call, _ := mut.LastCall()
	testutil.AssertEqual(t, call, testutil.Call{Op: "create", Fields: fields})
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertFalse(t, m.pending)
	testutil.AssertEqual(t, m.notice, "Ticket created")
}

func TestScenario_CreateRoundTrip(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m)

	m, _ = press(m, "a")
	m = typeText(m, "Alice")
	m, _ = press(m, "enter")
	m = typeText(m, "Bldg A")
	m, _ = press(m, "tab")
	m = typeText(m, "No power")
	m, cmd := press(m, "enter")
	m = runCmd(t, m, cmd)
	testutil.AssertEqual(t, m.mode, modeListing)

	// The new ticket only appears once the mirror pushes it.
	testutil.AssertNotContains(t, m.View(), "Alice")

	m = snapshot(m, models.Ticket{ID: "new-ticket", Names: "Alice", Location: "Bldg A", Issue: "No power"})

	view := m.View()
	testutil.AssertContains(t, view, "Alice")
	testutil.AssertContains(t, view, "Bldg A")
	testutil.AssertContains(t, view, "No power")
}

func TestSubmitCreate_TrimsFields(t *testing.T) {
	m, mut := newTestModel()
	m, _ = m.toggleFormOrReturn()

	m, cmd := m.submitCreate(models.Fields{Names: " Alice ", Location: "Bldg A\t", Issue: " No power"})
	runCmd(t, m, cmd)

	call, _ := mut.LastCall()
	testutil.AssertEqual(t, call.Fields, models.Fields{Names: "Alice", Location: "Bldg A", Issue: "No power"})
}

func TestSubmitCreate_Validation(t *testing.T) {
	m, mut := newTestModel()
	m, _ = m.toggleFormOrReturn()

	m, cmd := m.submitCreate(models.Fields{Names: "Alice", Location: "   ", Issue: "No power"})

	testutil.AssertTrue(t, cmd == nil)
	testutil.AssertEqual(t, mut.CallCount(), 0)
	testutil.AssertEqual(t, m.mode, modeCreating)
	testutil.AssertEqual(t, m.form.err, "location is required")
}

func TestSubmitCreate_IgnoredWhilePending(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.toggleFormOrReturn()

	fields := models.Fields{Names: "Alice", Location: "Bldg A", Issue: "No power"}
	m, first := m.submitCreate(fields)
	m, second := m.submitCreate(fields)

	testutil.AssertTrue(t, first != nil)
	testutil.AssertTrue(t, second == nil)
}

func TestSubmitCreate_Failure(t *testing.T) {
	m, mut := newTestModel()
	mut.CreateErr = store.NewStoreError("firestore", "insert", "", store.ErrPermissionDenied)
	m, _ = m.toggleFormOrReturn()

	m, cmd := m.submitCreate(models.Fields{Names: "Alice", Location: "Bldg A", Issue: "No power"})
	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, m.mode, modeCreating)
	testutil.AssertFalse(t, m.pending)
	testutil.AssertEqual(t, m.form.err, "Could not save ticket: permission-denied")
	testutil.AssertEqual(t, m.failure, "")
}

func TestScenario_EditTicket(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.BobTicket)

	m, _ = m.selectTicket("t1")
	testutil.AssertEqual(t, m.mode, modeViewing)

	m, _ = m.requestEdit()
	testutil.AssertEqual(t, m.mode, modeEditing)

	m, cmd := m.submitEdit(models.Ticket{ID: "t1", Names: "Bob", Location: "Rm 2", Issue: "Fixed"})
	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, mut.CallCount(), 1)
	call, _ := mut.LastCall()
	testutil.AssertEqual(t, call, testutil.Call{
		Op:     "update",
		ID:     "t1",
		Fields: models.Fields{Names: "Bob", Location: "Rm 2", Issue: "Fixed"},
	})
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")
}

func TestEditThroughForm(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.BobTicket)

	m, _ = press(m, "enter", "e", "tab", "tab")
	for range "Leak" {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = typeText(m, "Fixed")
	m, cmd := press(m, "ctrl+s")
	m = runCmd(t, m, cmd)

	call, _ := mut.LastCall()
	testutil.AssertEqual(t, call.ID, "t1")
	testutil.AssertEqual(t, call.Fields.Issue, "Fixed")
	testutil.AssertEqual(t, m.mode, modeListing)
}

func TestSubmitEdit_StaleBeforeSubmit(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")
	m, _ = m.requestEdit()
	m = snapshot(m)

	m, _ = m.submitEdit(models.Ticket{ID: "t1", Names: "Bob", Location: "Rm 2", Issue: "Fixed"})

	testutil.AssertEqual(t, mut.CallCount(), 0)
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.notice, "Ticket t1 is no longer available")
}

func TestSubmitEdit_NotFound(t *testing.T) {
	m, mut := newTestModel()
	mut.UpdateErr = store.NewStoreError("redis", "update", "t1", store.ErrNotFound)
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")
	m, _ = m.requestEdit()

	m, cmd := m.submitEdit(testutil.BobTicket)
	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")
	testutil.AssertEqual(t, m.notice, "Ticket t1 is no longer available")
}

func TestSubmitEdit_Failure(t *testing.T) {
	m, mut := newTestModel()
	mut.UpdateErr = store.NewStoreError("redis", "update", "t1", store.ErrUnavailable)
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")
	m, _ = m.requestEdit()

	m, cmd := m.submitEdit(testutil.BobTicket)
	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, m.mode, modeEditing)
	testutil.AssertEqual(t, m.selectedID, "t1")
	testutil.AssertEqual(t, m.form.err, "Could not save ticket: unavailable")
}

func TestConfirmDelete(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.AliceTicket, testutil.BobTicket)
	m, _ = m.selectTicket("t1")

	m, cmd := press(m, "d")
	testutil.AssertTrue(t, m.confirmDelete)
	testutil.AssertTrue(t, cmd == nil)
	testutil.AssertEqual(t, mut.CallCount(), 0)

	m, cmd = press(m, "y")
	m = runCmd(t, m, cmd)

	call, _ := mut.LastCall()
	testutil.AssertEqual(t, call, testutil.Call{Op: "delete", ID: "t1"})
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.selectedID, "")
	testutil.AssertEqual(t, m.notice, "Ticket deleted")
}

func TestConfirmDelete_Cancel(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")

	m, _ = press(m, "d", "n")
	testutil.AssertFalse(t, m.confirmDelete)
	testutil.AssertEqual(t, m.mode, modeViewing)

	m, _ = press(m, "d", "esc")
	testutil.AssertFalse(t, m.confirmDelete)
	testutil.AssertEqual(t, m.mode, modeViewing)
	testutil.AssertEqual(t, mut.CallCount(), 0)
}

func TestConfirmDelete_Stale(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")
	m, _ = press(m, "d")
	m = snapshot(m)

	m, _ = press(m, "y")

	testutil.AssertEqual(t, mut.CallCount(), 0)
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertContains(t, m.notice, "no longer available")
}

func TestConfirmDelete_Failure(t *testing.T) {
	m, mut := newTestModel()
	mut.DeleteErr = store.NewStoreError("firestore", "remove", "t1", store.ErrPermissionDenied)
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")

	m, cmd := m.confirmDeleteTicket("t1")
	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, m.mode, modeViewing)
	testutil.AssertEqual(t, m.selectedID, "t1")
	testutil.AssertEqual(t, m.detailErr, "Could not delete ticket: permission-denied")
	testutil.AssertEqual(t, m.failure, "")
}

func TestConfirmDelete_NotFound(t *testing.T) {
	m, mut := newTestModel()
	mut.DeleteErr = store.NewStoreError("sqlite", "remove", "t1", store.ErrNotFound)
	m = snapshot(m, testutil.BobTicket)
	m, _ = m.selectTicket("t1")

	m, cmd := m.confirmDeleteTicket("t1")
	m = runCmd(t, m, cmd)

	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.notice, "Ticket t1 is no longer available")
}

func TestScenario_PermissionDenied(t *testing.T) {
	m, mut := newTestModel()
	m = snapshot(m, testutil.BobTicket)

	m, _ = update(m, mirrorErrMsg{message: "permission-denied"})

	testutil.AssertEqual(t, m.mode, modeFailed)
	testutil.AssertEqual(t, m.failure, "permission-denied")
	testutil.AssertEqual(t, m.buttonLabel(), "")

	// Unrelated actions leave the controller Failed.
	m, _ = press(m, "a", "enter", "esc", "e", "d", "y", "j")
	m, _ = m.toggleFormOrReturn()
	m, _ = m.selectTicket("t1")
	m, _ = m.requestEdit()
	m, _ = m.submitCreate(models.Fields{Names: "Alice", Location: "Bldg A", Issue: "No power"})

	testutil.AssertEqual(t, m.mode, modeFailed)
	testutil.AssertEqual(t, m.currentView(), viewError)
	testutil.AssertEqual(t, m.failure, "permission-denied")
	testutil.AssertEqual(t, mut.CallCount(), 0)

	view := m.View()
	testutil.AssertContains(t, view, "permission-denied")
	testutil.AssertNotContains(t, view, "Add Ticket")
	testutil.AssertNotContains(t, view, "Return to Ticket List")
}

func TestFailed_KeepsFollowingSnapshots(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()
	m := New(testutil.NewFakeMutator(), WithFeed(feed))
	m = snapshot(m, testutil.AliceTicket)

	m, cmd := update(m, mirrorErrMsg{message: "unavailable"})
	testutil.AssertEqual(t, m.mode, modeFailed)
	testutil.AssertTrue(t, cmd != nil)

	feed.OnUpdate(testutil.SampleCollection())
	m, _ = update(m, cmd())

	testutil.AssertEqual(t, m.mode, modeFailed)
	testutil.AssertEqual(t, m.failure, "unavailable")
	testutil.AssertEqual(t, m.tickets.Len(), 3)
	testutil.AssertEqual(t, m.currentView(), viewError)
}

func TestFailed_AllowsQuit(t *testing.T) {
	m, _ := newTestModel()
	m, _ = update(m, mirrorErrMsg{message: "unavailable"})

	_, cmd := press(m, "q")
	testutil.AssertTrue(t, isQuit(cmd))

	_, cmd = press(m, "ctrl+c")
	testutil.AssertTrue(t, isQuit(cmd))
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel()

	_, cmd := press(m, "q")
	testutil.AssertTrue(t, isQuit(cmd))

	// q is text inside a form
	m, _ = m.toggleFormOrReturn()
	m, _ = press(m, "q")
	testutil.AssertEqual(t, m.mode, modeCreating)
	testutil.AssertEqual(t, m.form.fields().Names, "q")
}

func TestAbandonedMutation(t *testing.T) {
	m, mut := newTestModel()
	mut.CreateErr = store.ErrUnavailable
	m, _ = m.toggleFormOrReturn()

	m, cmd := m.submitCreate(models.Fields{Names: "Alice", Location: "Bldg A", Issue: "No power"})
	m, _ = press(m, "esc")
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertFalse(t, m.pending)

	m = runCmd(t, m, cmd)
	testutil.AssertEqual(t, m.mode, modeListing)
	testutil.AssertEqual(t, m.notice, "Could not create ticket: unavailable")
}

func TestAbandonedMutation_Success(t *testing.T) {
	m, _ := newTestModel()
	m = snapshot(m, testutil.AliceTicket)
	m, _ = m.toggleFormOrReturn()

	m, cmd := m.submitCreate(models.Fields{Names: "Bob", Location: "Rm 2", Issue: "Leak"})
	m, _ = press(m, "esc", "enter")
	testutil.AssertEqual(t, m.mode, modeViewing)

	m = runCmd(t, m, cmd)
	testutil.AssertEqual(t, m.mode, modeViewing)
	testutil.AssertEqual(t, m.notice, "")
}

func TestNoticeExpiry(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.setNotice("first")
	first := m.noticeSeq
	m, _ = m.setNotice("second")

	m, _ = update(m, noticeExpiredMsg{seq: first})
	testutil.AssertEqual(t, m.notice, "second")

	m, _ = update(m, noticeExpiredMsg{seq: m.noticeSeq})
	testutil.AssertEqual(t, m.notice, "")
}

func TestFeed(t *testing.T) {
	feed := NewFeed()
	feed.OnUpdate(testutil.CollectionOf(testutil.AliceTicket))
	feed.OnUpdate(testutil.SampleCollection())

	msg := listenForFeed(feed)()
	snap, ok := msg.(snapshotMsg)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, snap.tickets.Len(), 3)

	feed.OnError("permission-denied")
	msg = listenForFeed(feed)()
	failure, ok := msg.(mirrorErrMsg)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, failure.message, "permission-denied")

	feed.Close()
	feed.Close()
	testutil.AssertTrue(t, listenForFeed(feed)() == nil)
}
