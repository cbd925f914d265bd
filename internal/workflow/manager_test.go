package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inkwell/internal/content"
	"inkwell/internal/notifications"
	"inkwell/internal/scoring"
	"inkwell/internal/store"
	"inkwell/internal/testsupport"
	"inkwell/internal/topics"
)

type fakeSelector struct {
	selection topics.Selection
	err       error
	usedSeen  []string
}

func (f *fakeSelector) SelectTopic(_ context.Context, used []string) (topics.Selection, error) {
	f.usedSeen = used
	if f.err != nil {
		return topics.Selection{}, f.err
	}
	return f.selection, nil
}

type fakeResearcher struct {
	report content.ResearchReport
	err    error
}

func (f *fakeResearcher) Research(context.Context, topics.Selection) (content.ResearchReport, error) {
	if f.err != nil {
		return content.ResearchReport{}, f.err
	}
	return f.report, nil
}

type fakeWriter struct {
	article    content.Article
	err        error
	calls      int
	recentSeen []content.RecentArticle
}

func (f *fakeWriter) Write(_ context.Context, _ content.ResearchReport, recent []content.RecentArticle) (content.Article, error) {
	f.calls++
	f.recentSeen = recent
	if f.err != nil {
		return content.Article{}, f.err
	}
	return f.article, nil
}

type fakeNotifier struct {
	requests []notifications.ApprovalRequest
	err      error
}

func (f *fakeNotifier) SendApprovalRequest(_ context.Context, req notifications.ApprovalRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

// publishableArticle scores APPROVED against publishableReport: in-range SEO
// metadata, short readable sentences, and a word count inside the target
// window.
func publishableArticle() content.Article {
	body := strings.TrimSpace(strings.Repeat("The ride is fine. ", 625))
	return content.Article{
		Title:     "Hill Country Cycling Adventure",
		Body:      body,
		WordCount: content.CountWords(body),
		SEO: content.SEOMetadata{
			MetaTitle:       strings.Repeat("t", 55),
			MetaDescription: strings.Repeat("d", 150),
			Keywords:        []string{"cycling"},
		},
		InternalLinks: []string{"/blog/a", "/blog/b"},
		Images: []content.Image{
			{URL: "https://img.test/1.jpg"},
			{URL: "https://img.test/2.jpg"},
			{URL: "https://img.test/3.jpg"},
		},
	}
}

func publishableReport() content.ResearchReport {
	return content.ResearchReport{
		TopicTitle:    "Hill Country Cycling Adventure",
		TopicCategory: "Hill Country",
	}
}

func testSelection() topics.Selection {
	return topics.Selection{
		Topic: content.Topic{
			Title:    "Hill Country Cycling Adventure",
			Keywords: []string{"hill country cycling"},
			Category: "Hill Country",
		},
		UniquenessScore: 1.0,
	}
}

func newManager(t *testing.T, selector *fakeSelector, researcher *fakeResearcher, writer *fakeWriter, notifier *fakeNotifier) (*Manager, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return New(cfg, st, selector, researcher, writer, notifier, nil), st
}

func TestRunHappyPathAwaitsApproval(t *testing.T) {
	selector := &fakeSelector{selection: testSelection()}
	notifier := &fakeNotifier{}
	manager, st := newManager(t, selector,
		&fakeResearcher{report: publishableReport()},
		&fakeWriter{article: publishableArticle()},
		notifier)

	result, err := manager.Run(context.Background(), store.TriggerManual)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Status != store.StatusEmailSent || result.Decision != scoring.DecisionApproved {
		t.Fatalf("unexpected result %+v", result)
	}

	wf, err := st.GetByID(context.Background(), result.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Status != store.StatusEmailSent {
		t.Fatalf("persisted status %s", wf.Status)
	}
	if wf.ApprovalTokenHash == "" || wf.ApprovalTokenUsed {
		t.Fatalf("token not minted correctly: hash=%q used=%v", wf.ApprovalTokenHash, wf.ApprovalTokenUsed)
	}
	if wf.TopicTitle != "Hill Country Cycling Adventure" || wf.ArticleTitle == "" || wf.ArticleText == "" {
		t.Fatalf("stage payloads not persisted: %+v", wf)
	}

	results, err := wf.StageResults()
	if err != nil {
		t.Fatal(err)
	}
	for _, stage := range []string{StageTopicDiscovery, StageResearch, StageWriting, StageContentCheck} {
		entry, ok := results[stage]
		if !ok {
			t.Fatalf("missing stage result for %s", stage)
		}
		if entry.Status != store.StageCompleted || entry.CompletedAt == nil {
			t.Fatalf("stage %s not completed: %+v", stage, entry)
		}
	}

	if len(notifier.requests) != 1 {
		t.Fatalf("expected 1 approval email, got %d", len(notifier.requests))
	}
	req := notifier.requests[0]
	if req.WorkflowID != wf.ID || req.Token == "" || req.Article.Title == "" {
		t.Fatalf("incomplete approval request %+v", req)
	}
}

func TestRunRejectedSkipsNotification(t *testing.T) {
	report := publishableReport()
	report.KeyFacts = []string{"zzzzz qqqqq xxxxx never appears"}

	notifier := &fakeNotifier{}
	manager, st := newManager(t,
		&fakeSelector{selection: testSelection()},
		&fakeResearcher{report: report},
		&fakeWriter{article: publishableArticle()},
		notifier)

	result, err := manager.Run(context.Background(), store.TriggerDaily)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Status != store.StatusRejected || result.Decision != scoring.DecisionRejected {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(notifier.requests) != 0 {
		t.Fatal("rejected run must not send email")
	}

	wf, err := st.GetByID(context.Background(), result.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Status != store.StatusRejected || wf.ApprovalTokenHash != "" {
		t.Fatalf("unexpected persisted state %+v", wf)
	}
}

func TestRunWritingFailureFailsWorkflow(t *testing.T) {
	notifier := &fakeNotifier{}
	manager, st := newManager(t,
		&fakeSelector{selection: testSelection()},
		&fakeResearcher{report: publishableReport()},
		&fakeWriter{err: errors.New("model unavailable")},
		notifier)

	result, err := manager.Run(context.Background(), store.TriggerManual)
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected writer error, got %v", err)
	}
	if result.Status != store.StatusFailed {
		t.Fatalf("unexpected result %+v", result)
	}

	wf, err := st.GetByID(context.Background(), result.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Status != store.StatusFailed || !strings.Contains(wf.ErrorMessage, "model unavailable") {
		t.Fatalf("failure not persisted: %+v", wf)
	}

	results, err := wf.StageResults()
	if err != nil {
		t.Fatal(err)
	}
	if entry := results[StageWriting]; entry.Status != store.StageFailed || entry.Error == "" {
		t.Fatalf("writing stage result %+v", entry)
	}
	if _, ok := results[StageContentCheck]; ok {
		t.Fatal("content check must not run after a writing failure")
	}
	if len(notifier.requests) != 0 {
		t.Fatal("failed run must not send email")
	}
}

func TestRunSelectorFailure(t *testing.T) {
	manager, st := newManager(t,
		&fakeSelector{err: errors.New("bank unreadable")},
		&fakeResearcher{report: publishableReport()},
		&fakeWriter{article: publishableArticle()},
		&fakeNotifier{})

	result, err := manager.Run(context.Background(), store.TriggerManual)
	if err == nil {
		t.Fatal("expected error")
	}
	wf, err := st.GetByID(context.Background(), result.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Status != store.StatusFailed {
		t.Fatalf("unexpected status %s", wf.Status)
	}
	results, err := wf.StageResults()
	if err != nil {
		t.Fatal(err)
	}
	if entry := results[StageTopicDiscovery]; entry.Status != store.StageFailed {
		t.Fatalf("topic stage result %+v", entry)
	}
}

func TestRunNotifierFailureStillAwaitsApproval(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("mail endpoint down")}
	manager, st := newManager(t,
		&fakeSelector{selection: testSelection()},
		&fakeResearcher{report: publishableReport()},
		&fakeWriter{article: publishableArticle()},
		notifier)

	result, err := manager.Run(context.Background(), store.TriggerManual)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Status != store.StatusEmailSent {
		t.Fatalf("unexpected result %+v", result)
	}
	wf, err := st.GetByID(context.Background(), result.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Status != store.StatusEmailSent {
		t.Fatalf("persisted status %s", wf.Status)
	}
}

func TestRunPassesUsedTitlesToSelector(t *testing.T) {
	selector := &fakeSelector{selection: testSelection()}
	manager, st := newManager(t, selector,
		&fakeResearcher{report: publishableReport()},
		&fakeWriter{article: publishableArticle()},
		&fakeNotifier{})

	// First run reaches email_sent, which reserves its topic title.
	first, err := manager.Run(context.Background(), store.TriggerManual)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.Status != store.StatusEmailSent {
		t.Fatalf("unexpected first result %+v", first)
	}

	if _, err := manager.Run(context.Background(), store.TriggerManual); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(selector.usedSeen) != 1 || !strings.EqualFold(selector.usedSeen[0], "Hill Country Cycling Adventure") {
		t.Fatalf("used titles not passed: %v", selector.usedSeen)
	}
	_ = st
}

func TestRunFeedsPublishedHistoryToWriterAndScorer(t *testing.T) {
	writer := &fakeWriter{article: publishableArticle()}
	manager, st := newManager(t,
		&fakeSelector{selection: testSelection()},
		&fakeResearcher{report: publishableReport()},
		writer,
		&fakeNotifier{})
	ctx := context.Background()

	past, err := st.Create(ctx, store.TriggerManual)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	past.ArticleTitle = "Earlier Hill Country Piece"
	past.ArticleText = publishableArticle().Body
	if err := st.Update(ctx, past); err != nil {
		t.Fatalf("Update: %v", err)
	}
	steps := []store.Status{
		store.StatusDiscoveringTopic,
		store.StatusResearching,
		store.StatusWriting,
		store.StatusChecking,
		store.StatusEmailSent,
		store.StatusPublished,
	}
	from := store.StatusInitialized
	for _, to := range steps {
		if err := st.Transition(ctx, past.ID, from, to); err != nil {
			t.Fatalf("Transition to %s: %v", to, err)
		}
		from = to
	}

	result, err := manager.Run(ctx, store.TriggerManual)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(writer.recentSeen) != 1 {
		t.Fatalf("expected 1 recent article, got %d", len(writer.recentSeen))
	}
	if writer.recentSeen[0].Title != "Earlier Hill Country Piece" || writer.recentSeen[0].Body == "" {
		t.Fatalf("unexpected history entry %+v", writer.recentSeen[0])
	}

	// The new draft duplicates the published body, so the uniqueness check
	// must reject it.
	if result.Status != store.StatusRejected || result.Decision != scoring.DecisionRejected {
		t.Fatalf("duplicate of published history not rejected: %+v", result)
	}
}
