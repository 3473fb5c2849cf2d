// Package knowledge implements the retrieval pipeline: document loading,
// chunking, embedding, vector storage, and similarity search.
//
// # Architecture
//
//	sources (files, directories, URLs)
//	     |
//	     v
//	DocumentLoader (web first, file fallback)
//	     |
//	     +-- Chunk: paragraph-based splitting with word overlap
//	     |
//	     v
//	Embedder (batch, position-aligned)
//	     |
//	     v
//	VectorStore (cosine similarity, descending order)
//	     |
//	     v
//	Base.Search -> []Result for prompt assembly
//
// Ingestion is eager: New loads every configured source, embeds all chunks in
// a single Embedder call, and stores them in a single VectorStore call before
// returning. A Base is therefore fully queryable as soon as New succeeds.
//
// Collaborators (Embedder, VectorStore, DocumentLoader) are small interfaces
// so alternative backends can be substituted without touching orchestration.
// There is no hidden default state: callers construct and pass their own
// embedder and store.
package knowledge
