package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inkwell/internal/store"
	"inkwell/internal/testsupport"
)

func advance(t *testing.T, st *store.Store, id string, path ...store.Status) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < len(path)-1; i++ {
		if err := st.Transition(ctx, id, path[i], path[i+1]); err != nil {
			t.Fatalf("transition %s -> %s: %v", path[i], path[i+1], err)
		}
	}
}

func fullPathToEmailSent() []store.Status {
	return []store.Status{
		store.StatusInitialized,
		store.StatusDiscoveringTopic,
		store.StatusResearching,
		store.StatusWriting,
		store.StatusChecking,
		store.StatusEmailSent,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, store.TriggerDaily)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if wf.ID == "" {
		t.Fatal("expected workflow ID to be assigned")
	}
	if wf.Status != store.StatusInitialized {
		t.Fatalf("expected initialized status, got %s", wf.Status)
	}
	if wf.TriggerType != store.TriggerDaily {
		t.Fatalf("unexpected trigger: %q", wf.TriggerType)
	}

	fetched, err := st.GetByID(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.ID != wf.ID {
		t.Fatalf("unexpected fetched workflow: %#v", fetched)
	}

	missing, err := st.GetByID(ctx, "wf-does-not-exist")
	if err != nil {
		t.Fatalf("GetByID for missing workflow errored: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing workflow, got %#v", missing)
	}
}

func TestUpdateDoesNotTouchStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wf.TopicTitle = "Cloud Cost Optimization"
	wf.TopicCategory = "engineering"
	wf.Status = store.StatusPublished // must be ignored by Update
	if err := st.Update(ctx, wf); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := st.GetByID(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.TopicTitle != "Cloud Cost Optimization" {
		t.Fatalf("expected topic title persisted, got %q", fetched.TopicTitle)
	}
	if fetched.Status != store.StatusInitialized {
		t.Fatalf("Update must not change status, got %s", fetched.Status)
	}
}

func TestTransitionWalksLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	advance(t, st, wf.ID, fullPathToEmailSent()...)

	fetched, err := st.GetByID(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != store.StatusEmailSent {
		t.Fatalf("expected email_sent, got %s", fetched.Status)
	}

	if err := st.Transition(ctx, wf.ID, store.StatusEmailSent, store.StatusPublished); err != nil {
		t.Fatalf("publish transition failed: %v", err)
	}
}

func TestTransitionRejectsSkipsAndTerminalExits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Skipping stages is forbidden by the graph.
	err = st.Transition(ctx, wf.ID, store.StatusInitialized, store.StatusWriting)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for skip, got %v", err)
	}

	// Stale expectations lose the conditional update.
	err = st.Transition(ctx, wf.ID, store.StatusDiscoveringTopic, store.StatusResearching)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for stale from, got %v", err)
	}

	err = st.Transition(ctx, "wf-missing", store.StatusInitialized, store.StatusDiscoveringTopic)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	advance(t, st, wf.ID, fullPathToEmailSent()...)
	if err := st.Transition(ctx, wf.ID, store.StatusEmailSent, store.StatusDeclined); err != nil {
		t.Fatalf("decline transition failed: %v", err)
	}

	// Terminal states have no outgoing edges.
	err = st.Transition(ctx, wf.ID, store.StatusDeclined, store.StatusPublished)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition leaving terminal state, got %v", err)
	}
}

func TestFailRecordsMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	advance(t, st, wf.ID, store.StatusInitialized, store.StatusDiscoveringTopic, store.StatusResearching)

	if err := st.Fail(ctx, wf.ID, "research source unavailable"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}

	fetched, err := st.GetByID(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != store.StatusFailed {
		t.Fatalf("expected failed status, got %s", fetched.Status)
	}
	if fetched.ErrorMessage != "research source unavailable" {
		t.Fatalf("unexpected error message: %q", fetched.ErrorMessage)
	}

	if err := st.Fail(ctx, wf.ID, "again"); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition failing a terminal workflow, got %v", err)
	}
}

func TestConsumeApprovalTokenExactlyOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	advance(t, st, wf.ID, fullPathToEmailSent()...)
	if err := st.SetApprovalToken(ctx, wf.ID, "hash-1"); err != nil {
		t.Fatalf("SetApprovalToken failed: %v", err)
	}

	if ok, err := st.ConsumeApprovalToken(ctx, wf.ID, "wrong-hash"); err != nil || ok {
		t.Fatalf("expected mismatch to fail CAS, got ok=%v err=%v", ok, err)
	}
	if ok, err := st.ConsumeApprovalToken(ctx, wf.ID, "hash-1"); err != nil || !ok {
		t.Fatalf("expected first redemption to win, got ok=%v err=%v", ok, err)
	}
	if ok, err := st.ConsumeApprovalToken(ctx, wf.ID, "hash-1"); err != nil || ok {
		t.Fatalf("expected second redemption to lose, got ok=%v err=%v", ok, err)
	}

	fetched, err := st.GetByID(ctx, wf.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !fetched.ApprovalTokenUsed {
		t.Fatal("expected token marked used")
	}
}

func TestConsumeApprovalTokenConcurrentSingleWinner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	advance(t, st, wf.ID, fullPathToEmailSent()...)
	if err := st.SetApprovalToken(ctx, wf.ID, "hash-concurrent"); err != nil {
		t.Fatalf("SetApprovalToken failed: %v", err)
	}

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.ConsumeApprovalToken(ctx, wf.ID, "hash-concurrent")
			if err != nil {
				t.Errorf("ConsumeApprovalToken errored: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestFailStaleSkipsAwaitingApproval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stuck, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	advance(t, st, stuck.ID, store.StatusInitialized, store.StatusDiscoveringTopic, store.StatusResearching)

	waiting, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	advance(t, st, waiting.ID, fullPathToEmailSent()...)

	// A future cutoff makes every row count as stale; only processing
	// statuses may be swept.
	count, err := st.FailStale(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("FailStale failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one stale workflow failed, got %d", count)
	}

	fetchedStuck, err := st.GetByID(ctx, stuck.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetchedStuck.Status != store.StatusFailed {
		t.Fatalf("expected stuck workflow failed, got %s", fetchedStuck.Status)
	}

	fetchedWaiting, err := st.GetByID(ctx, waiting.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetchedWaiting.Status != store.StatusEmailSent {
		t.Fatalf("expected awaiting workflow untouched, got %s", fetchedWaiting.Status)
	}
}

func TestUsedTopicTitlesAndRecentPublished(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	mk := func(title string, publish bool) *store.Workflow {
		wf, err := st.Create(ctx, "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		wf.TopicTitle = title
		wf.ArticleText = "body for " + title
		if err := st.Update(ctx, wf); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		advance(t, st, wf.ID, fullPathToEmailSent()...)
		if publish {
			if err := st.Transition(ctx, wf.ID, store.StatusEmailSent, store.StatusPublished); err != nil {
				t.Fatalf("publish failed: %v", err)
			}
		}
		return wf
	}

	mk("Kubernetes Cost Basics", true)
	time.Sleep(5 * time.Millisecond) // distinct updated_at ordering
	mk("Terraform Drift Detection", true)
	mk("Awaiting Approval Topic", false)

	// Failed runs must not reserve their topic.
	failedWF, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	failedWF.TopicTitle = "Abandoned Topic"
	if err := st.Update(ctx, failedWF); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := st.Fail(ctx, failedWF.ID, "boom"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	titles, err := st.UsedTopicTitles(ctx)
	if err != nil {
		t.Fatalf("UsedTopicTitles failed: %v", err)
	}
	got := make(map[string]bool, len(titles))
	for _, title := range titles {
		got[title] = true
	}
	for _, want := range []string{"Kubernetes Cost Basics", "Terraform Drift Detection", "Awaiting Approval Topic"} {
		if !got[want] {
			t.Fatalf("expected %q in used titles, got %v", want, titles)
		}
	}
	if got["Abandoned Topic"] {
		t.Fatalf("failed workflow should not reserve its topic: %v", titles)
	}

	recent, err := st.RecentPublished(ctx, 1)
	if err != nil {
		t.Fatalf("RecentPublished failed: %v", err)
	}
	if len(recent) != 1 || recent[0].TopicTitle != "Terraform Drift Detection" {
		t.Fatalf("expected newest published first, got %#v", recent)
	}
}

func TestCountByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := st.Create(ctx, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	wf, err := st.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.Fail(ctx, wf.ID, "boom"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	counts, err := st.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[store.StatusInitialized] != 3 {
		t.Fatalf("expected 3 initialized, got %d", counts[store.StatusInitialized])
	}
	if counts[store.StatusFailed] != 1 {
		t.Fatalf("expected 1 failed, got %d", counts[store.StatusFailed])
	}
}

func TestStageResultsRoundTrip(t *testing.T) {
	wf := &store.Workflow{}
	started := time.Now().UTC().Truncate(time.Second)
	completed := started.Add(2 * time.Second)

	if err := wf.SetStageResult("research", store.StageResult{
		Status:      store.StageCompleted,
		StartedAt:   started,
		CompletedAt: &completed,
		DurationMS:  2000,
	}); err != nil {
		t.Fatalf("SetStageResult failed: %v", err)
	}
	if err := wf.SetStageResult("writing", store.StageResult{
		Status:    store.StageFailed,
		StartedAt: started,
		Error:     "generation timeout",
	}); err != nil {
		t.Fatalf("SetStageResult failed: %v", err)
	}

	results, err := wf.StageResults()
	if err != nil {
		t.Fatalf("StageResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two stage results, got %d", len(results))
	}
	if results["research"].Status != store.StageCompleted || results["research"].DurationMS != 2000 {
		t.Fatalf("unexpected research result: %#v", results["research"])
	}
	if results["writing"].Error != "generation timeout" {
		t.Fatalf("unexpected writing result: %#v", results["writing"])
	}
}
