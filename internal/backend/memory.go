package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend is an in-memory Backend used by tests and offline demos.
// It interprets the subset of the query language the query builder
// emits: bool/term/terms/range/match/multi_match/match_all/geo_distance,
// top-level knn, rrf retrievers, stats/terms/histogram aggregations,
// field sorts with search_after, and highlights are omitted.
//
// Keyword matching on text fields is case-insensitive, mirroring the
// lowercase normalizer the catalog declares for address fields.
type MemoryBackend struct {
	mu       sync.RWMutex
	indices  map[string]*memoryIndex
	validate func(index, id string, source map[string]any) error
}

type memoryIndex struct {
	mapping  json.RawMessage
	settings json.RawMessage
	docs     map[string]map[string]any
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{indices: map[string]*memoryIndex{}}
}

// SetValidator installs a per-document validation hook applied during
// BulkWrite, letting tests simulate backend-side document rejection.
func (m *MemoryBackend) SetValidator(fn func(index, id string, source map[string]any) error) {
	m.validate = fn
}

// Ping always succeeds.
func (m *MemoryBackend) Ping(ctx context.Context) error { return ctx.Err() }

// EnsureIndex creates or validates an index.
func (m *MemoryBackend) EnsureIndex(ctx context.Context, name string, mapping, settings json.RawMessage, forceRecreate bool) error {
	if err := ctx.Err(); err != nil {
		return NewError(KindCancelled, "ensure_index", "cancelled", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.indices[name]; ok {
		if forceRecreate {
			delete(m.indices, name)
		} else {
			if !equalJSON(idx.mapping, mapping) {
				return NewError(KindSchemaConflict, "ensure_index",
					fmt.Sprintf("index %q exists with an incompatible mapping and force_recreate is false", name), nil)
			}
			return nil
		}
	}
	m.indices[name] = &memoryIndex{mapping: mapping, settings: settings, docs: map[string]map[string]any{}}
	return nil
}

// DeleteIndex removes an index; missing indices are ignored.
func (m *MemoryBackend) DeleteIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return NewError(KindCancelled, "delete_index", "cancelled", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indices, name)
	return nil
}

// BulkWrite upserts documents, applying the validation hook per item.
func (m *MemoryBackend) BulkWrite(ctx context.Context, index string, docs []Document) (*BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(KindCancelled, "bulk_write", "cancelled", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.indices[index]
	if !ok {
		idx = &memoryIndex{docs: map[string]map[string]any{}}
		m.indices[index] = idx
	}

	result := &BulkResult{}
	for _, doc := range docs {
		if doc.ID == "" {
			return nil, NewError(KindValidation, "bulk_write", "document without id", nil)
		}
		source, err := toSourceMap(doc.Body)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{ID: doc.ID, Status: 400, Reason: err.Error()})
			continue
		}
		if m.validate != nil {
			if err := m.validate(index, doc.ID, source); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{ID: doc.ID, Status: 400, Reason: err.Error()})
				continue
			}
		}
		idx.docs[doc.ID] = source
		result.Indexed++
	}
	return result, nil
}

// Refresh is a no-op; in-memory writes are immediately visible.
func (m *MemoryBackend) Refresh(ctx context.Context, index string) error { return ctx.Err() }

// UpdateSettings records settings without interpreting them.
func (m *MemoryBackend) UpdateSettings(ctx context.Context, index string, settings json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return NewError(KindCancelled, "update_settings", "cancelled", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.indices[index]; ok {
		idx.settings = settings
	}
	return nil
}

// Count returns the number of documents in an index (test helper).
func (m *MemoryBackend) Count(index string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx, ok := m.indices[index]; ok {
		return len(idx.docs)
	}
	return 0
}

// GetDoc returns a stored document's source (test helper).
func (m *MemoryBackend) GetDoc(index, id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx, ok := m.indices[index]; ok {
		doc, ok := idx.docs[id]
		return doc, ok
	}
	return nil, false
}

type scoredDoc struct {
	index  string
	id     string
	score  float64
	source map[string]any
}

// Search interprets the query document against the stored corpus.
func (m *MemoryBackend) Search(ctx context.Context, indices []string, body any) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(KindCancelled, "search", "cancelled", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, err := toSourceMap(body)
	if err != nil {
		return nil, NewError(KindValidation, "search", "failed to decode query document", err)
	}

	corpus := m.collect(indices)

	var matched []scoredDoc
	switch {
	case req["retriever"] != nil:
		matched, err = m.evalRetriever(asMap(req["retriever"]), corpus)
	case req["knn"] != nil:
		matched, err = m.evalKNN(asMap(req["knn"]), corpus)
	default:
		matched, err = m.evalQueryClause(req["query"], corpus)
	}
	if err != nil {
		return nil, err
	}

	sortSpec, _ := req["sort"].([]any)
	sortDocs(matched, sortSpec)

	if after, ok := req["search_after"].([]any); ok && len(sortSpec) > 0 {
		matched = applySearchAfter(matched, sortSpec, after)
	}

	total := int64(len(matched))

	size := 10
	if v, ok := asInt(req["size"]); ok {
		size = v
	}
	if size >= 0 && len(matched) > size {
		matched = matched[:size]
	}

	result := &SearchResult{Total: total}
	for _, d := range matched {
		src, err := json.Marshal(d.source)
		if err != nil {
			return nil, NewError(KindValidation, "search", "failed to marshal hit source", err)
		}
		hit := Hit{Index: d.index, ID: d.id, Score: d.score, Source: src}
		if len(sortSpec) > 0 {
			hit.Sort = sortValues(d, sortSpec)
		}
		result.Hits = append(result.Hits, hit)
	}

	if aggs, ok := req["aggs"].(map[string]any); ok {
		result.Aggregations, err = m.evalAggs(aggs, corpusOrMatched(req, corpus, matchedAll(m, indices, req)))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// matchedAll re-runs the query without size truncation for aggregations.
func matchedAll(m *MemoryBackend, indices []string, req map[string]any) []scoredDoc {
	corpus := m.collect(indices)
	docs, err := m.evalQueryClause(req["query"], corpus)
	if err != nil {
		return nil
	}
	return docs
}

// corpusOrMatched picks the aggregation scope: the filtered set when a
// query is present, the whole corpus otherwise.
func corpusOrMatched(req map[string]any, corpus, matched []scoredDoc) []scoredDoc {
	if req["query"] != nil {
		return matched
	}
	return corpus
}

func (m *MemoryBackend) collect(indices []string) []scoredDoc {
	var out []scoredDoc
	names := indices
	if len(names) == 0 {
		for name := range m.indices {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		idx, ok := m.indices[name]
		if !ok {
			continue
		}
		ids := make([]string, 0, len(idx.docs))
		for id := range idx.docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, scoredDoc{index: name, id: id, source: idx.docs[id]})
		}
	}
	return out
}

// evalQueryClause scores the corpus against one query clause.
func (m *MemoryBackend) evalQueryClause(clause any, corpus []scoredDoc) ([]scoredDoc, error) {
	if clause == nil {
		out := make([]scoredDoc, len(corpus))
		copy(out, corpus)
		for i := range out {
			out[i].score = 1.0
		}
		return out, nil
	}
	q := asMap(clause)
	var out []scoredDoc
	for _, d := range corpus {
		ok, score := m.evalDoc(q, d.source)
		if ok {
			d.score = score
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	return out, nil
}

// evalDoc returns whether the doc matches the clause and its score.
func (m *MemoryBackend) evalDoc(q map[string]any, source map[string]any) (bool, float64) {
	for kind, body := range q {
		switch kind {
		case "match_all":
			return true, 1.0
		case "bool":
			return m.evalBool(asMap(body), source)
		case "term":
			return evalTerm(asMap(body), source), 0.5
		case "terms":
			return evalTerms(asMap(body), source), 0.5
		case "range":
			return evalRange(asMap(body), source), 0.0
		case "exists":
			field, _ := asMap(body)["field"].(string)
			return fieldValue(source, field) != nil, 0.0
		case "match":
			score := evalMatch(asMap(body), source)
			return score > 0, score
		case "match_phrase":
			score := evalMatchPhrase(asMap(body), source)
			return score > 0, score
		case "multi_match":
			score := evalMultiMatch(asMap(body), source)
			return score > 0, score
		case "geo_distance":
			return evalGeoDistance(asMap(body), source), 0.0
		}
	}
	return false, 0
}

func (m *MemoryBackend) evalBool(body, source map[string]any) (bool, float64) {
	score := 0.0
	for _, clause := range asClauseList(body["must"]) {
		ok, s := m.evalDoc(clause, source)
		if !ok {
			return false, 0
		}
		score += s
	}
	for _, clause := range asClauseList(body["filter"]) {
		if ok, _ := m.evalDoc(clause, source); !ok {
			return false, 0
		}
	}
	for _, clause := range asClauseList(body["must_not"]) {
		if ok, _ := m.evalDoc(clause, source); ok {
			return false, 0
		}
	}
	shoulds := asClauseList(body["should"])
	shouldMatched := 0
	for _, clause := range shoulds {
		if ok, s := m.evalDoc(clause, source); ok {
			shouldMatched++
			score += s
		}
	}
	if len(shoulds) > 0 && len(asClauseList(body["must"]))+len(asClauseList(body["filter"])) == 0 && shouldMatched == 0 {
		return false, 0
	}
	if score == 0 {
		score = 0.1
	}
	return true, score
}

// evalKNN ranks the corpus by cosine similarity to the query vector.
func (m *MemoryBackend) evalKNN(body map[string]any, corpus []scoredDoc) ([]scoredDoc, error) {
	field, _ := body["field"].(string)
	queryVec := asFloats(body["query_vector"])
	if field == "" || len(queryVec) == 0 {
		return nil, NewError(KindValidation, "search", "knn clause missing field or query_vector", nil)
	}
	k := 10
	if v, ok := asInt(body["k"]); ok {
		k = v
	}

	var filter map[string]any
	if body["filter"] != nil {
		filter = asMap(body["filter"])
	}

	var out []scoredDoc
	for _, d := range corpus {
		if filter != nil {
			if ok, _ := m.evalDoc(filter, d.source); !ok {
				continue
			}
		}
		vec := asFloats(fieldValue(d.source, field))
		if len(vec) == 0 {
			continue
		}
		d.score = cosine(queryVec, vec)
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// evalRetriever handles rrf and standard retriever nodes.
func (m *MemoryBackend) evalRetriever(node map[string]any, corpus []scoredDoc) ([]scoredDoc, error) {
	if rrf, ok := node["rrf"].(map[string]any); ok {
		rankConstant := 60
		if v, ok := asInt(rrf["rank_constant"]); ok {
			rankConstant = v
		}
		window := 100
		if v, ok := asInt(rrf["rank_window_size"]); ok {
			window = v
		}
		var lists [][]scoredDoc
		for _, sub := range asAnyList(rrf["retrievers"]) {
			docs, err := m.evalRetriever(asMap(sub), corpus)
			if err != nil {
				return nil, err
			}
			if len(docs) > window {
				docs = docs[:window]
			}
			lists = append(lists, docs)
		}
		return fuseRankLists(lists, rankConstant), nil
	}
	if std, ok := node["standard"].(map[string]any); ok {
		return m.evalQueryClause(std["query"], corpus)
	}
	if knn, ok := node["knn"].(map[string]any); ok {
		return m.evalKNN(knn, corpus)
	}
	return nil, NewError(KindValidation, "search", "unsupported retriever node", nil)
}

// fuseRankLists applies reciprocal rank fusion over ranked lists.
func fuseRankLists(lists [][]scoredDoc, rankConstant int) []scoredDoc {
	type fused struct {
		doc     scoredDoc
		score   float64
		minRank int
	}
	byID := map[string]*fused{}
	for _, list := range lists {
		for rank, d := range list {
			f, ok := byID[d.id]
			if !ok {
				f = &fused{doc: d, minRank: math.MaxInt}
				byID[d.id] = f
			}
			f.score += 1.0 / float64(rankConstant+rank+1)
			if rank+1 < f.minRank {
				f.minRank = rank + 1
			}
		}
	}
	out := make([]*fused, 0, len(byID))
	for _, f := range byID {
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].minRank != out[j].minRank {
			return out[i].minRank < out[j].minRank
		}
		return out[i].doc.id < out[j].doc.id
	})
	docs := make([]scoredDoc, len(out))
	for i, f := range out {
		f.doc.score = f.score
		docs[i] = f.doc
	}
	return docs
}

// --- leaf clause evaluation ---

func evalTerm(body, source map[string]any) bool {
	for field, raw := range body {
		want := raw
		if mm, ok := raw.(map[string]any); ok {
			want = mm["value"]
		}
		return looseEqual(fieldValue(source, field), want)
	}
	return false
}

func evalTerms(body, source map[string]any) bool {
	for field, raw := range body {
		if field == "boost" {
			continue
		}
		have := fieldValue(source, field)
		for _, want := range asAnyList(raw) {
			if anyValueMatches(have, want) {
				return true
			}
		}
		return false
	}
	return false
}

func evalRange(body, source map[string]any) bool {
	for field, raw := range body {
		bounds := asMap(raw)
		val, ok := asFloat(fieldValue(source, field))
		if !ok {
			return false
		}
		if gte, ok := asFloat(bounds["gte"]); ok && val < gte {
			return false
		}
		if gt, ok := asFloat(bounds["gt"]); ok && val <= gt {
			return false
		}
		if lte, ok := asFloat(bounds["lte"]); ok && val > lte {
			return false
		}
		if lt, ok := asFloat(bounds["lt"]); ok && val >= lt {
			return false
		}
		return true
	}
	return false
}

func evalMatch(body, source map[string]any) float64 {
	for field, raw := range body {
		text := raw
		if mm, ok := raw.(map[string]any); ok {
			text = mm["query"]
		}
		query, _ := text.(string)
		return tokenOverlap(stringValue(fieldValue(source, field)), query)
	}
	return 0
}

func evalMatchPhrase(body, source map[string]any) float64 {
	for field, raw := range body {
		text := raw
		if mm, ok := raw.(map[string]any); ok {
			text = mm["query"]
		}
		query, _ := text.(string)
		if query == "" {
			return 0
		}
		if strings.Contains(strings.ToLower(stringValue(fieldValue(source, field))), strings.ToLower(query)) {
			return 1.0
		}
		return 0
	}
	return 0
}

func evalMultiMatch(body, source map[string]any) float64 {
	query, _ := body["query"].(string)
	total := 0.0
	for _, rawField := range asAnyList(body["fields"]) {
		field, _ := rawField.(string)
		boost := 1.0
		if i := strings.Index(field, "^"); i >= 0 {
			if b, ok := asFloat(field[i+1:]); ok {
				boost = b
			}
			field = field[:i]
		}
		total += boost * tokenOverlap(stringValue(fieldValue(source, field)), query)
	}
	return total
}

func evalGeoDistance(body, source map[string]any) bool {
	distanceStr, _ := body["distance"].(string)
	radiusKm, ok := parseDistanceKm(distanceStr)
	if !ok {
		return false
	}
	var field string
	var center map[string]any
	for key, raw := range body {
		if key == "distance" {
			continue
		}
		field = key
		center = asMap(raw)
	}
	point := asMap(fieldValue(source, field))
	lat1, ok1 := asFloat(center["lat"])
	lon1, ok2 := asFloat(center["lon"])
	lat2, ok3 := asFloat(point["lat"])
	lon2, ok4 := asFloat(point["lon"])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return haversineKm(lat1, lon1, lat2, lon2) <= radiusKm
}

// --- aggregations ---

func (m *MemoryBackend) evalAggs(aggs map[string]any, docs []scoredDoc) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	for name, raw := range aggs {
		spec := asMap(raw)
		var payload any
		switch {
		case spec["stats"] != nil:
			payload = statsAgg(asMap(spec["stats"]), docs)
		case spec["terms"] != nil:
			payload = termsAgg(asMap(spec["terms"]), docs)
		case spec["histogram"] != nil:
			payload = histogramAgg(asMap(spec["histogram"]), docs)
		case spec["avg"] != nil:
			payload = singleMetricAgg(asMap(spec["avg"]), docs, "avg")
		default:
			return nil, NewError(KindValidation, "search", fmt.Sprintf("unsupported aggregation %q", name), nil)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, NewError(KindValidation, "search", "failed to marshal aggregation", err)
		}
		out[name] = data
	}
	return out, nil
}

func statsAgg(spec map[string]any, docs []scoredDoc) map[string]any {
	field, _ := spec["field"].(string)
	var values []float64
	for _, d := range docs {
		if v, ok := asFloat(fieldValue(d.source, field)); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return map[string]any{"count": 0, "min": nil, "max": nil, "avg": nil, "sum": 0}
	}
	minV, maxV, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	return map[string]any{
		"count": len(values),
		"min":   minV,
		"max":   maxV,
		"avg":   sum / float64(len(values)),
		"sum":   sum,
	}
}

func termsAgg(spec map[string]any, docs []scoredDoc) map[string]any {
	field, _ := spec["field"].(string)
	size := 10
	if v, ok := asInt(spec["size"]); ok {
		size = v
	}
	counts := map[string]int{}
	for _, d := range docs {
		val := fieldValue(d.source, field)
		for _, s := range stringValues(val) {
			counts[s]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > size {
		keys = keys[:size]
	}
	buckets := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, map[string]any{"key": k, "doc_count": counts[k]})
	}
	return map[string]any{"buckets": buckets}
}

func histogramAgg(spec map[string]any, docs []scoredDoc) map[string]any {
	field, _ := spec["field"].(string)
	interval, ok := asFloat(spec["interval"])
	if !ok || interval <= 0 {
		return map[string]any{"buckets": []any{}}
	}
	counts := map[float64]int{}
	for _, d := range docs {
		if v, ok := asFloat(fieldValue(d.source, field)); ok {
			bucket := math.Floor(v/interval) * interval
			counts[bucket]++
		}
	}
	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	buckets := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, map[string]any{"key": k, "doc_count": counts[k]})
	}
	return map[string]any{"buckets": buckets}
}

func singleMetricAgg(spec map[string]any, docs []scoredDoc, kind string) map[string]any {
	stats := statsAgg(spec, docs)
	return map[string]any{"value": stats[kind]}
}

// --- sorting and pagination ---

func sortDocs(docs []scoredDoc, sortSpec []any) {
	if len(sortSpec) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, raw := range sortSpec {
			field, order := sortFieldOrder(raw)
			if field == "" {
				continue
			}
			vi := fieldValue(docs[i].source, field)
			vj := fieldValue(docs[j].source, field)
			cmp := compareValues(vi, vj)
			if cmp == 0 {
				continue
			}
			if order == "desc" {
				return cmp > 0
			}
			return cmp < 0
		}
		return docs[i].id < docs[j].id
	})
}

func sortFieldOrder(raw any) (string, string) {
	if s, ok := raw.(string); ok {
		return s, "asc"
	}
	for field, spec := range asMap(raw) {
		order := "asc"
		if m, ok := spec.(map[string]any); ok {
			if o, ok := m["order"].(string); ok {
				order = o
			}
		} else if s, ok := spec.(string); ok {
			order = s
		}
		return field, order
	}
	return "", ""
}

func sortValues(d scoredDoc, sortSpec []any) []any {
	var out []any
	for _, raw := range sortSpec {
		field, _ := sortFieldOrder(raw)
		out = append(out, fieldValue(d.source, field))
	}
	return out
}

func applySearchAfter(docs []scoredDoc, sortSpec []any, after []any) []scoredDoc {
	for i, d := range docs {
		vals := sortValues(d, sortSpec)
		if compareTuples(vals, after, sortSpec) > 0 {
			return docs[i:]
		}
	}
	return nil
}

func compareTuples(a, b []any, sortSpec []any) int {
	for i := range a {
		if i >= len(b) {
			break
		}
		cmp := compareValues(a[i], b[i])
		if _, order := sortFieldOrder(sortSpec[i]); order == "desc" {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

// --- value helpers ---

func toSourceMap(body any) (map[string]any, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func equalJSON(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asAnyList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func asClauseList(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = append(out, asMap(item))
		}
	case map[string]any:
		out = append(out, t)
	}
	return out
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asFloats(v any) []float64 {
	var out []float64
	for _, item := range asAnyList(v) {
		if f, ok := asFloat(item); ok {
			out = append(out, f)
		}
	}
	return out
}

// fieldValue resolves a dotted path into a nested source map.
func fieldValue(source map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var cur any = source
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringValue(item))
		}
		return strings.Join(parts, " ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func stringValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, stringValues(item)...)
		}
		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprintf("%v", t)}
	}
}

func looseEqual(have, want any) bool {
	for _, h := range stringValues(have) {
		if strings.EqualFold(h, stringValue(want)) {
			return true
		}
	}
	if hf, ok := asFloat(have); ok {
		if wf, ok := asFloat(want); ok {
			return hf == wf
		}
	}
	return false
}

func anyValueMatches(have, want any) bool {
	return looseEqual(have, want)
}

func compareValues(a, b any) int {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(stringValue(a), stringValue(b))
}

func tokenOverlap(text, query string) float64 {
	if text == "" || query == "" {
		return 0
	}
	textLower := strings.ToLower(text)
	matched := 0
	tokens := strings.Fields(strings.ToLower(query))
	for _, token := range tokens {
		if strings.Contains(textLower, token) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return float64(matched) / float64(len(tokens))
}

func parseDistanceKm(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasSuffix(s, "km"):
		v, ok := asFloat(strings.TrimSuffix(s, "km"))
		return v, ok
	case strings.HasSuffix(s, "mi"):
		v, ok := asFloat(strings.TrimSuffix(s, "mi"))
		return v * 1.609344, ok
	case strings.HasSuffix(s, "m"):
		v, ok := asFloat(strings.TrimSuffix(s, "m"))
		return v / 1000, ok
	}
	v, ok := asFloat(s)
	return v, ok
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
