// Package embedder generates vector embeddings for text chunks using various providers.
//
// The embedder supports multiple providers (OpenAI-compatible APIs, a local
// Ollama server, or a deterministic offline fallback) and provides batching,
// caching, retry, and usage accounting for production use.
//
// # Basic Usage
//
//	// Create embedder (auto-detects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	// Generate single embedding
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "func ParseFile(path string) error { ... }",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// For efficiency, use batch processing:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
//	for i, embedding := range resp.Embeddings {
//	    // Store embedding for chunk i
//	}
//
// Batch responses carry a Usage record with the provider-reported prompt
// token count and the billed cost in USD. Per-chunk token counts are
// attributed proportionally to text length.
//
// # Provider Selection
//
// The embedder selects a provider based on environment variables:
//
//  1. If GITCTX_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if OPENAI_API_KEY is set → use OpenAI
//  3. Else if OLLAMA_HOST is set → use Ollama
//  4. Else → fallback to local provider (offline mode)
//
// Provider configuration:
//
//	config := embedder.Config{
//	    Provider:  "openai",
//	    APIKey:    "your-api-key",
//	    CacheSize: 10000,
//	}
//	emb, err := embedder.New(config)
//
// The OpenAI provider accepts a custom BaseURL, so any endpoint speaking the
// OpenAI embeddings wire format (Azure, vLLM, LM Studio) works unchanged.
//
// # Provider Comparison
//
// OpenAI:
//   - Dimensions: 1536 (text-embedding-3-small)
//   - Quality: Excellent (general purpose)
//   - Cost: Pay per token
//
// Ollama:
//   - Dimensions: 768 (nomic-embed-text)
//   - Quality: Good
//   - Cost: Free (local inference)
//
// Local (offline):
//   - Dimensions: 384
//   - Quality: Test/development only (hash-derived vectors)
//   - Cost: Free
//
// # Caching
//
// The embedder includes an in-memory LRU cache keyed by content hash:
//
//	cache := embedder.NewCache(10000) // cache 10k embeddings
//
//	hash := embedder.ComputeHash(text)
//	if emb, ok := cache.Get(hash); ok {
//	    return emb // cache hit
//	}
//
// # Error Handling
//
// Transient failures are retried with exponential backoff:
//
//	resp, err := emb.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // API unavailable after retries
//	}
package embedder
