// Package dict implements the frequency-dictionary lookup behind the
// spelling detector: a deletes-based symmetric-delete index (SymSpell
// semantics) over a "term count" word list.
package dict

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Candidate is one ranked correction for a looked-up term.
type Candidate struct {
	Term     string
	Distance int
	Count    int64
}

// Dictionary indexes terms by their delete variants so lookups only verify
// edit distance against a small candidate set instead of the whole
// vocabulary.
type Dictionary struct {
	words     map[string]int64
	deletes   map[string][]string
	maxEdit   int
	prefixLen int
}

// New creates an empty dictionary with the given maximum edit distance and
// delete-index prefix length.
func New(maxEdit, prefixLen int) *Dictionary {
	if maxEdit <= 0 {
		maxEdit = 2
	}
	if prefixLen <= 0 {
		prefixLen = 7
	}
	return &Dictionary{
		words:     make(map[string]int64),
		deletes:   make(map[string][]string),
		maxEdit:   maxEdit,
		prefixLen: prefixLen,
	}
}

// Load reads a frequency dictionary file with one "term count" pair per
// line, separated by a space or tab.
func Load(path string, maxEdit, prefixLen int) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d := New(maxEdit, prefixLen)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dictionary line %d: bad count %q", line, fields[1])
		}
		d.Add(fields[0], count)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan dictionary: %w", err)
	}
	if len(d.words) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return d, nil
}

// Add inserts a term with its corpus frequency.
func (d *Dictionary) Add(term string, count int64) {
	term = strings.ToLower(term)
	if term == "" {
		return
	}
	if _, ok := d.words[term]; !ok {
		prefix := term
		if len(prefix) > d.prefixLen {
			prefix = prefix[:d.prefixLen]
		}
		for del := range deleteVariants(prefix, d.maxEdit) {
			d.deletes[del] = append(d.deletes[del], term)
		}
	}
	d.words[term] += count
}

// Len reports the number of distinct terms.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Contains reports whether term is in the dictionary verbatim
// (case-insensitive).
func (d *Dictionary) Contains(term string) bool {
	_, ok := d.words[strings.ToLower(term)]
	return ok
}

// Lookup returns candidates within the maximum edit distance of term,
// keeping only the closest distance tier, ranked by frequency descending.
// A term present in the dictionary returns itself as the sole candidate.
func (d *Dictionary) Lookup(term string) []Candidate {
	q := strings.ToLower(term)
	if q == "" {
		return nil
	}
	if count, ok := d.words[q]; ok {
		return []Candidate{{Term: q, Distance: 0, Count: count}}
	}

	prefix := q
	if len(prefix) > d.prefixLen {
		prefix = prefix[:d.prefixLen]
	}

	seen := map[string]bool{}
	var candidates []Candidate
	best := d.maxEdit + 1
	for del := range deleteVariants(prefix, d.maxEdit) {
		for _, cand := range d.deletes[del] {
			if seen[cand] {
				continue
			}
			seen[cand] = true
			dist := editDistance(q, cand, d.maxEdit)
			if dist < 0 || dist > best {
				continue
			}
			if dist < best {
				best = dist
				candidates = candidates[:0]
			}
			candidates = append(candidates, Candidate{Term: cand, Distance: dist, Count: d.words[cand]})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		return candidates[i].Term < candidates[j].Term
	})
	return candidates
}

// deleteVariants returns the term plus every string reachable by deleting up
// to maxEdit characters.
func deleteVariants(term string, maxEdit int) map[string]bool {
	out := map[string]bool{term: true}
	frontier := []string{term}
	for round := 0; round < maxEdit; round++ {
		var next []string
		for _, w := range frontier {
			if len(w) <= 1 {
				continue
			}
			for i := range w {
				del := w[:i] + w[i+1:]
				if !out[del] {
					out[del] = true
					next = append(next, del)
				}
			}
		}
		frontier = next
	}
	return out
}

// editDistance computes Damerau-Levenshtein distance (with adjacent
// transpositions) between a and b, returning -1 once it exceeds max.
func editDistance(a, b string, max int) int {
	la, lb := len(a), len(b)
	if la-lb > max || lb-la > max {
		return -1
	}
	prev2 := make([]int, lb+1)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			v := prev[j] + 1
			if cur[j-1]+1 < v {
				v = cur[j-1] + 1
			}
			if prev[j-1]+cost < v {
				v = prev[j-1] + cost
			}
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if prev2[j-2]+1 < v {
					v = prev2[j-2] + 1
				}
			}
			cur[j] = v
			if v < rowMin {
				rowMin = v
			}
		}
		if rowMin > max {
			return -1
		}
		prev2, prev, cur = prev, cur, prev2
	}
	if prev[lb] > max {
		return -1
	}
	return prev[lb]
}
