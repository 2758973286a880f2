package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pdfqa/llm"
	"pdfqa/llm/vector"
	"pdfqa/pubsub"

	"github.com/cloudwego/eino/callbacks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pricingText = "The basic plan costs 10 dollars per month. The premium plan costs 25 dollars per month. Support is available on weekdays."

func pricingDocs() []llm.Document {
	return []llm.Document{
		{Content: pricingText, Metadata: llm.Metadata{Source: "pricing.pdf", Page: llm.PageOf(0), Extra: map[string]any{"page_label": "1"}}},
		{Content: "Refunds are processed within 30 days.", Metadata: llm.Metadata{Source: "pricing.pdf", Page: llm.PageOf(1)}},
	}
}

func newMemoryStore(t *testing.T) vector.VectorStore {
	t.Helper()
	store, err := vector.NewChromemStore("", "test", nil)
	require.NoError(t, err)
	return store
}

func TestIngestEmptySourceTouchesNothing(t *testing.T) {
	emb := &wordEmbedder{}
	store := &recordingStore{}
	loader := &stubLoader{docs: []llm.Document{{Content: "   ", Metadata: llm.Metadata{Source: "blank.pdf", Page: llm.PageOf(0)}}}}

	in := NewIngestor(loader, vector.NewSplitter(1000, 150), vector.NewEmbeddingService(emb, 100), store, nil)
	n, err := in.Ingest(context.Background(), "blank.pdf")

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, emb.calls)
	assert.Zero(t, store.calls())
}

func TestIngestWritesEnrichedRecords(t *testing.T) {
	store := &recordingStore{}
	in := NewIngestor(&stubLoader{docs: pricingDocs()}, vector.NewSplitter(1000, 150),
		vector.NewEmbeddingService(&wordEmbedder{}, 100), store, nil)

	n, err := in.Ingest(context.Background(), "pricing.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, store.upserts, 1, "one upsert call per ingestion")
	records := store.upserts[0]
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, pricingText, first.Content)
	assert.Equal(t, vector.ChunkIdentity(llm.Document{Content: pricingText, Metadata: pricingDocs()[0].Metadata}), first.ID)
	assert.Equal(t, first.ID, first.Metadata.DocumentID)
	assert.Equal(t, "pricing.pdf", first.Metadata.Source)
	assert.Equal(t, 0, *first.Metadata.Page)
	assert.Equal(t, "1", first.Metadata.Extra["page_label"])
	assert.Len(t, first.Vector, wordDims)
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	in := NewIngestor(&stubLoader{docs: pricingDocs()}, vector.NewSplitter(60, 10),
		vector.NewEmbeddingService(&wordEmbedder{}, 2), store, nil)

	first, err := in.Ingest(ctx, "pricing.pdf")
	require.NoError(t, err)
	countAfterFirst, err := store.Count(ctx)
	require.NoError(t, err)

	second, err := in.Ingest(ctx, "pricing.pdf")
	require.NoError(t, err)
	countAfterSecond, err := store.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(first), countAfterFirst)
	assert.Equal(t, countAfterFirst, countAfterSecond)
}

func TestIngestCollapsesDuplicateChunks(t *testing.T) {
	page := llm.Metadata{Source: "dup.pdf", Page: llm.PageOf(0)}
	loader := &stubLoader{docs: []llm.Document{
		{Content: "same text", Metadata: page},
		{Content: "same text", Metadata: page},
		{Content: "same text", Metadata: llm.Metadata{Source: "dup.pdf", Page: llm.PageOf(1)}},
	}}
	store := &recordingStore{}
	in := NewIngestor(loader, vector.NewSplitter(1000, 0), vector.NewEmbeddingService(&wordEmbedder{}, 100), store, nil)

	n, err := in.Ingest(context.Background(), "dup.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, store.upserts[0], 2)
	assert.NotEqual(t, store.upserts[0][0].ID, store.upserts[0][1].ID)
}

func TestIngestErrorKinds(t *testing.T) {
	ctx := context.Background()
	splitter := vector.NewSplitter(1000, 150)

	loadErr := errors.New("corrupt file")
	_, err := NewIngestor(&stubLoader{err: loadErr}, splitter, vector.NewEmbeddingService(&wordEmbedder{}, 0), &recordingStore{}, nil).
		Ingest(ctx, "x.pdf")
	assert.ErrorIs(t, err, llm.ErrLoad)
	assert.ErrorIs(t, err, loadErr)

	store := &recordingStore{}
	_, err = NewIngestor(&stubLoader{docs: pricingDocs()}, splitter, vector.NewEmbeddingService(&wordEmbedder{err: errors.New("quota")}, 0), store, nil).
		Ingest(ctx, "x.pdf")
	assert.ErrorIs(t, err, llm.ErrModel)
	assert.Zero(t, store.calls(), "nothing is written when embedding fails")

	_, err = NewIngestor(&stubLoader{docs: pricingDocs()}, splitter, vector.NewEmbeddingService(&wordEmbedder{}, 0), &recordingStore{err: errors.New("connection refused")}, nil).
		Ingest(ctx, "x.pdf")
	assert.ErrorIs(t, err, llm.ErrStore)
}

func TestIngestPublishesProgress(t *testing.T) {
	broker := pubsub.NewBroker[Progress]()
	defer broker.Shutdown()
	ctx, cancel := context.WithCancel(context.Background())
	events := broker.Subscribe(ctx)

	in := NewIngestor(&stubLoader{docs: pricingDocs()}, vector.NewSplitter(1000, 0),
		vector.NewEmbeddingService(&wordEmbedder{}, 100), &recordingStore{}, nil).WithProgress(broker)
	_, err := in.Ingest(ctx, "pricing.pdf")
	require.NoError(t, err)

	_, err = NewIngestor(&stubLoader{err: errors.New("bad pdf")}, vector.NewSplitter(1000, 0),
		vector.NewEmbeddingService(&wordEmbedder{}, 100), &recordingStore{}, nil).WithProgress(broker).Ingest(ctx, "bad.pdf")
	require.Error(t, err)
	cancel()

	var got []string
	for ev := range events {
		got = append(got, string(ev.Type)+":"+ev.Payload.Stage)
		if ev.Type == pubsub.FailedEvent {
			assert.ErrorIs(t, ev.Payload.Err, llm.ErrLoad)
		}
	}
	assert.Equal(t, []string{
		"started:", "progress:loaded", "progress:split", "progress:embedded", "finished:stored",
		"started:", "failed:",
	}, got)
}

func TestRetrieveUnderFilledStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	embeddings := vector.NewEmbeddingService(&wordEmbedder{}, 100)

	docs := append(pricingDocs(), llm.Document{
		Content:  "Invoices are emailed on the first day of each month.",
		Metadata: llm.Metadata{Source: "pricing.pdf", Page: llm.PageOf(2)},
	})
	n, err := NewIngestor(&stubLoader{docs: docs}, vector.NewSplitter(1000, 0), embeddings, store, nil).Ingest(ctx, "p.pdf")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	results, err := NewRetriever(embeddings, store, 10, nil).Retrieve(ctx, "how much is the premium plan")
	require.NoError(t, err)
	require.Len(t, results, 3, "asking for 10 from a store of 3 returns all 3")
	assert.Equal(t, pricingText, results[0].Document.Content)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRetrieveErrorKinds(t *testing.T) {
	ctx := context.Background()

	_, err := NewRetriever(vector.NewEmbeddingService(&wordEmbedder{err: errors.New("down")}, 0), &recordingStore{}, 0, nil).
		Retrieve(ctx, "q")
	assert.ErrorIs(t, err, llm.ErrModel)

	_, err = NewRetriever(vector.NewEmbeddingService(&wordEmbedder{}, 0), &recordingStore{err: errors.New("timeout")}, 0, nil).
		Retrieve(ctx, "q")
	assert.ErrorIs(t, err, llm.ErrStore)
}

func TestRetrieveCapsAtTopK(t *testing.T) {
	store := &recordingStore{results: make([]llm.SearchResult, 5)}
	results, err := NewRetriever(vector.NewEmbeddingService(&wordEmbedder{}, 0), store, 3, nil).Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestFormatContext(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))

	results := []llm.SearchResult{
		{Document: llm.Document{Content: "second best"}, Score: 0.5},
		{Document: llm.Document{Content: "third"}, Score: 0.2},
	}
	assert.Equal(t, "second best\n\n---\n\nthird", FormatContext(results))

	one := []llm.SearchResult{{Document: llm.Document{Content: "only"}}}
	assert.Equal(t, "only", FormatContext(one))
}

func TestPromptFor(t *testing.T) {
	en, err := PromptFor("")
	require.NoError(t, err)
	assert.Equal(t, RefusalEnglish, en.Refusal)
	assert.Contains(t, en.Template, RefusalEnglish)

	pt, err := PromptFor("PT")
	require.NoError(t, err)
	assert.Equal(t, RefusalPortuguese, pt.Refusal)
	assert.Contains(t, pt.Template, "PERGUNTA DO USUÁRIO")

	_, err = PromptFor("fr")
	assert.Error(t, err)
}

func TestSynthesizerRendersPromptAndTrims(t *testing.T) {
	ctx := context.Background()
	p, _ := PromptFor(LanguageEnglish)
	cm := &scriptedModel{reply: func(string) string { return "\n  Ten dollars.  \n" }}

	synth, err := NewSynthesizer(ctx, cm, p, nil)
	require.NoError(t, err)

	answer, err := synth.Answer(ctx, "How much is basic?", "basic costs 10")
	require.NoError(t, err)
	assert.Equal(t, "Ten dollars.", answer)

	require.Len(t, cm.prompts, 1)
	contextText, question := splitPrompt(cm.prompts[0])
	assert.Equal(t, "basic costs 10", contextText)
	assert.Equal(t, "How much is basic?", question)
}

func TestSynthesizerRunsCallbackHandlers(t *testing.T) {
	ctx := context.Background()
	p, _ := PromptFor(LanguageEnglish)

	var started, ended int
	handler := callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, _ *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			started++
			return ctx
		}).
		OnEndFn(func(ctx context.Context, _ *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
			ended++
			return ctx
		}).
		Build()

	synth, err := NewSynthesizer(ctx, &scriptedModel{reply: func(string) string { return "ok" }}, p, nil, handler)
	require.NoError(t, err)
	_, err = synth.Answer(ctx, "q", "c")
	require.NoError(t, err)

	assert.Positive(t, started, "handler sees the chain start")
	assert.Equal(t, started, ended)
}

func TestSynthesizerEmptyReplyIsModelError(t *testing.T) {
	ctx := context.Background()
	p, _ := PromptFor(LanguageEnglish)

	synth, err := NewSynthesizer(ctx, &scriptedModel{reply: func(string) string { return "   " }}, p, nil)
	require.NoError(t, err)
	_, err = synth.Answer(ctx, "q", "c")
	assert.ErrorIs(t, err, llm.ErrModel)

	cause := errors.New("rate limited")
	synth, err = NewSynthesizer(ctx, &scriptedModel{err: cause}, p, nil)
	require.NoError(t, err)
	_, err = synth.Answer(ctx, "q", "c")
	assert.ErrorIs(t, err, llm.ErrModel)

	_, err = NewSynthesizer(ctx, nil, p, nil)
	assert.ErrorIs(t, err, llm.ErrConfiguration)
}

func TestAskWithEmptyStoreRefusesWithoutModel(t *testing.T) {
	ctx := context.Background()
	p, _ := PromptFor(LanguageEnglish)
	cm := &scriptedModel{reply: func(string) string { return "should not be called" }}
	synth, err := NewSynthesizer(ctx, cm, p, nil)
	require.NoError(t, err)

	embeddings := vector.NewEmbeddingService(&wordEmbedder{}, 0)
	answerer := NewAnswerer(NewRetriever(embeddings, newMemoryStore(t), 10, nil), synth, nil)

	answer, err := answerer.Ask(ctx, "anything?")
	require.NoError(t, err)
	assert.Equal(t, RefusalEnglish, answer)
	assert.Empty(t, cm.prompts)
}

func TestAskRefusesQuestionOutsideContext(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	embeddings := vector.NewEmbeddingService(&wordEmbedder{}, 100)

	wakanda := []llm.Document{{
		Content:  "The capital of Wakanda is Birnin Zana.",
		Metadata: llm.Metadata{Source: "atlas.pdf", Page: llm.PageOf(0)},
	}}
	n, err := NewIngestor(&stubLoader{docs: wakanda}, vector.NewSplitter(1000, 150), embeddings, store, nil).
		Ingest(ctx, "atlas.pdf")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	p, _ := PromptFor(LanguageEnglish)
	cm := &scriptedModel{reply: groundedReply(p.Refusal)}
	synth, err := NewSynthesizer(ctx, cm, p, nil)
	require.NoError(t, err)
	answerer := NewAnswerer(NewRetriever(embeddings, store, 10, nil), synth, nil)

	answer, err := answerer.Ask(ctx, "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, RefusalEnglish, answer)

	require.Len(t, cm.prompts, 1, "the chunk is retrieved and sent to the model")
	contextText, _ := splitPrompt(cm.prompts[0])
	assert.Equal(t, "The capital of Wakanda is Birnin Zana.", contextText)

	answer, err = answerer.Ask(ctx, "What is the capital of Wakanda?")
	require.NoError(t, err)
	assert.Equal(t, "The capital of Wakanda is Birnin Zana.", answer)
}

func TestAskGroundedEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	embeddings := vector.NewEmbeddingService(&wordEmbedder{}, 100)

	_, err := NewIngestor(&stubLoader{docs: pricingDocs()}, vector.NewSplitter(1000, 150), embeddings, store, nil).
		Ingest(ctx, "pricing.pdf")
	require.NoError(t, err)

	p, _ := PromptFor(LanguageEnglish)
	cm := &scriptedModel{reply: groundedReply(p.Refusal)}
	synth, err := NewSynthesizer(ctx, cm, p, nil)
	require.NoError(t, err)
	answerer := NewAnswerer(NewRetriever(embeddings, store, 10, nil), synth, nil)

	answer, err := answerer.Ask(ctx, "How much does the premium plan cost?")
	require.NoError(t, err)
	assert.Equal(t, "The premium plan costs 25 dollars per month.", answer)

	answer, err = answerer.Ask(ctx, "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, RefusalEnglish, answer)

	// every prompt carried the retrieved context
	for _, prompt := range cm.prompts {
		assert.True(t, strings.Contains(prompt, "Refunds are processed"))
	}
}
