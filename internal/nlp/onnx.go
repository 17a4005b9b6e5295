package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXTagger runs a local token-classification model (Penn Treebank POS
// tagset) over the sentencizer's word tokens. It yields an impoverished Doc:
// POS, fine tags and morphological number, but no dependency relations.
type ONNXTagger struct {
	tokenizer *wordPieceTokenizer
	labels    []string
	seqLen    int
	sessions  chan *taggerSession
}

type taggerSession struct {
	session       *ort.AdvancedSession
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

// NewONNXTagger loads the tagger from a model directory holding model.onnx,
// vocab.txt and config.json (with an id2label map). The shared onnxruntime
// library must be resolvable; set sharedLibPath to override discovery.
func NewONNXTagger(modelDir string, seqLen, poolSize int, sharedLibPath string) (*ONNXTagger, error) {
	if modelDir == "" {
		return nil, errors.New("model dir is empty")
	}
	if seqLen <= 0 {
		seqLen = 256
	}
	if poolSize <= 0 {
		poolSize = 1
	}

	if sharedLibPath == "" {
		sharedLibPath = strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"))
	}
	if sharedLibPath != "" {
		ort.SetSharedLibraryPath(sharedLibPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	tokenizer, err := loadWordPieceTokenizer(filepath.Join(modelDir, "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tagger tokenizer: %w", err)
	}
	labels, err := loadTagLabels(filepath.Join(modelDir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("load tagger labels: %w", err)
	}

	modelPath := filepath.Join(modelDir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("tagger model missing: %w", err)
	}

	sessions := make(chan *taggerSession, poolSize)
	for i := 0; i < poolSize; i++ {
		ss, err := newTaggerSession(modelPath, seqLen, len(labels))
		if err != nil {
			return nil, fmt.Errorf("create tagger session %d/%d: %w", i+1, poolSize, err)
		}
		sessions <- ss
	}

	return &ONNXTagger{
		tokenizer: tokenizer,
		labels:    labels,
		seqLen:    seqLen,
		sessions:  sessions,
	}, nil
}

// Parse tokenizes text, tags every word token and derives coarse POS and
// morphological number from the predicted Penn tags.
func (t *ONNXTagger) Parse(ctx context.Context, text string) (*Doc, error) {
	if t == nil || t.tokenizer == nil {
		return nil, errors.New("tagger not initialized")
	}
	doc := &Doc{
		Text:   text,
		Tokens: Tokenize(text),
	}
	doc.Sentences = segmentSentences(text, doc.Tokens)
	if len(doc.Tokens) == 0 {
		return doc, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ss := <-t.sessions
	defer func() { t.sessions <- ss }()

	ids, attn, wordIdx := t.tokenizer.encodeWords(doc.Tokens, t.seqLen)
	copy(ss.inputIDs.GetData(), ids)
	copy(ss.attentionMask.GetData(), attn)

	if err := ss.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	logits := ss.output.GetData()
	numLabels := len(t.labels)
	tagged := make(map[int]bool, len(doc.Tokens))
	for pos, wi := range wordIdx {
		// First sub-word piece decides the word's tag.
		if wi < 0 || wi >= len(doc.Tokens) || tagged[wi] {
			continue
		}
		base := pos * numLabels
		if base+numLabels > len(logits) {
			break
		}
		best := 0
		for j := 1; j < numLabels; j++ {
			if logits[base+j] > logits[base+best] {
				best = j
			}
		}
		tag := t.labels[best]
		tok := &doc.Tokens[wi]
		tok.Tag = tag
		tok.POS = coarsePOS(tag)
		tok.Number, tok.Person = morphFromTag(tag)
		tagged[wi] = true
	}
	doc.HasPOS = true
	return doc, nil
}

func newTaggerSession(modelPath string, seqLen, numLabels int) (*taggerSession, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("set graph optimization: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(numLabels)))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &taggerSession{
		session:       session,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

func loadTagLabels(configPath string) ([]string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.ID2Label) == 0 {
		return nil, errors.New("config.json missing id2label")
	}
	maxID := -1
	for k := range cfg.ID2Label {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("bad id2label key %q", k)
		}
		if id > maxID {
			maxID = id
		}
	}
	labels := make([]string, maxID+1)
	for k, v := range cfg.ID2Label {
		id, _ := strconv.Atoi(strings.TrimSpace(k))
		labels[id] = v
	}
	return labels, nil
}

// coarsePOS maps a Penn Treebank tag to the universal tag detectors match on.
func coarsePOS(tag string) string {
	switch tag {
	case "NNP", "NNPS":
		return "PROPN"
	case "MD":
		return "AUX"
	case "DT", "PDT", "WDT":
		return "DET"
	case "PRP", "PRP$", "WP", "WP$":
		return "PRON"
	case "IN":
		return "ADP"
	case "CC":
		return "CCONJ"
	case "CD":
		return "NUM"
	case "UH":
		return "INTJ"
	}
	switch {
	case strings.HasPrefix(tag, "NN"):
		return "NOUN"
	case strings.HasPrefix(tag, "VB"):
		return "VERB"
	case strings.HasPrefix(tag, "JJ"):
		return "ADJ"
	case strings.HasPrefix(tag, "RB"):
		return "ADV"
	case tag == "" || strings.ContainsAny(tag, ".,:;!?`'\"-()"):
		return "PUNCT"
	default:
		return "X"
	}
}

// morphFromTag derives number/person features where the Penn tag encodes
// them. Anything else stays unspecified.
func morphFromTag(tag string) (number, person string) {
	switch tag {
	case "NN", "NNP":
		return "Sing", ""
	case "NNS", "NNPS":
		return "Plur", ""
	case "VBZ":
		return "Sing", "3"
	case "VBP":
		return "Plur", ""
	}
	return "", ""
}
