// Package rag answers questions from documents with retrieval-augmented
// generation.
//
// Documents are split into overlapping chunks, embedded and indexed in a
// chromem vector collection. A question retrieves the closest chunks which
// are handed to the model as context.
//
//	store, _ := rag.NewVectorStore(rag.NewOpenAIEmbedder(key, baseURL, "").Func())
//	qa := rag.NewDocumentQA(model, store)
//	qa.Ingest(ctx, "report.txt", text)
//	ans, _ := qa.Ask(ctx, "What was the total revenue?")
//	fmt.Println(ans)
//
// HashEmbedder needs no network access and is used for offline runs and tests.
package rag
