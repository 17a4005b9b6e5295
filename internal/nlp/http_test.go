package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProvider_ParsesFullAnnotations(t *testing.T) {
	text := "Dogs bark"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parse" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != text {
			t.Fatalf("unexpected text %q", req.Text)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tokens": [
				{"text": "Dogs", "start": 0, "end": 4, "pos": "NOUN", "tag": "NNS", "dep": "nsubj", "head": 1, "lemma": "dog", "morph": {"Number": "Plur"}},
				{"text": "bark", "start": 5, "end": 9, "pos": "VERB", "tag": "VBP", "dep": "ROOT", "head": 1, "lemma": "bark", "morph": {"Number": "Plur", "Person": "3"}}
			],
			"sentences": [{"start": 0, "end": 9}]
		}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	doc, err := p.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !doc.HasPOS || !doc.HasDeps {
		t.Fatalf("expected full annotations, got HasPOS=%v HasDeps=%v", doc.HasPOS, doc.HasDeps)
	}
	if len(doc.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %#v", doc.Tokens)
	}
	first := doc.Tokens[0]
	if first.POS != "NOUN" || first.Tag != "NNS" || first.Dep != "nsubj" || first.Head != 1 {
		t.Fatalf("unexpected token %#v", first)
	}
	if first.Number != "Plur" {
		t.Fatalf("morph number not mapped: %#v", first)
	}
	if doc.Tokens[1].Person != "3" {
		t.Fatalf("morph person not mapped: %#v", doc.Tokens[1])
	}
	if len(doc.Sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %#v", doc.Sentences)
	}
	sent := doc.Sentences[0]
	if sent.TokenStart != 0 || sent.TokenEnd != 2 {
		t.Fatalf("sentence token range wrong: %#v", sent)
	}
}

func TestHTTPProvider_RejectsInvalidSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tokens": [{"text": "x", "start": 0, "end": 999}], "sentences": []}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	if _, err := p.Parse(context.Background(), "short"); err == nil {
		t.Fatalf("expected error for out-of-range token span")
	}
}

func TestHTTPProvider_FallsBackToSegmentation(t *testing.T) {
	text := "One. Two."
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"tokens": [
				{"text": "One", "start": 0, "end": 3, "pos": "NUM"},
				{"text": ".", "start": 3, "end": 4, "pos": "PUNCT"},
				{"text": "Two", "start": 5, "end": 8, "pos": "NUM"},
				{"text": ".", "start": 8, "end": 9, "pos": "PUNCT"}
			],
			"sentences": []
		}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	doc, err := p.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Sentences) != 2 {
		t.Fatalf("expected fallback segmentation to find 2 sentences, got %#v", doc.Sentences)
	}
	if doc.HasDeps {
		t.Fatalf("no dependencies were returned, HasDeps must be false")
	}
}

func TestHTTPProvider_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	if _, err := p.Parse(context.Background(), "text"); err == nil {
		t.Fatalf("expected error on 5xx")
	}
}
