package references

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"text2sql/internal/prompt"
)

// SQLiteStore keeps references in a local table
// (query TEXT, sql TEXT, embedding BLOB) and ranks them by cosine similarity
// in process. Embeddings are little-endian float32 arrays.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

func OpenSQLiteStore(ctx context.Context, path, collection string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open reference database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping reference database: %w", err)
	}
	return newSQLiteStore(db, collection), nil
}

func newSQLiteStore(db *sql.DB, collection string) *SQLiteStore {
	return &SQLiteStore{db: db, collection: collection}
}

type scoredReference struct {
	ref   prompt.Reference
	score float64
}

func (s *SQLiteStore) Search(ctx context.Context, vector []float64, limit int) ([]prompt.Reference, error) {
	// collection is validated as an identifier in OpenStore.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT query, sql, embedding FROM "%s" WHERE embedding IS NOT NULL`, s.collection))
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	var scored []scoredReference
	for rows.Next() {
		var ref prompt.Reference
		var blob []byte
		if err := rows.Scan(&ref.Query, &ref.SQL, &blob); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		stored := deserializeEmbedding(blob)
		if len(stored) != len(vector) {
			continue
		}
		scored = append(scored, scoredReference{ref: ref, score: cosineSimilarity(vector, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	refs := make([]prompt.Reference, len(scored))
	for i, sr := range scored {
		refs[i] = sr.ref
	}
	return refs, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func serializeEmbedding(embedding []float64) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

func deserializeEmbedding(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return embedding
}

func cosineSimilarity(a []float64, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		bv := float64(b[i])
		dot += a[i] * bv
		normA += a[i] * a[i]
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
