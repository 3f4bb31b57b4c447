package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Embedder turns free text into a fixed-length sentence embedding using a
// local BERT-style ONNX encoder. The model, vocab, and session are loaded
// lazily on first use and shared read-only for the rest of the process
// lifetime; construct one at the composition root and inject it.
type Embedder struct {
	mu sync.Mutex

	modelPath string
	vocabPath string
	libPath   string
	maxSeqLen int

	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	inputs    map[string]*ort.Tensor[int64]
	output    *ort.Tensor[float32]
	hidden    int
	inited    bool
}

func NewEmbedder(modelPath, vocabPath, onnxLibPath string, maxSeqLen int) *Embedder {
	if maxSeqLen <= 0 {
		maxSeqLen = 128
	}
	return &Embedder{
		modelPath: modelPath,
		vocabPath: vocabPath,
		libPath:   onnxLibPath,
		maxSeqLen: maxSeqLen,
	}
}

// initOnce loads the ONNX shared library, environment, vocab, and session.
func (e *Embedder) initOnce() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inited {
		return nil
	}

	if e.libPath != "" {
		ort.SetSharedLibraryPath(e.libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("onnx init environment: %w", err)
	}

	tokenizer, err := NewWordPieceTokenizer(e.vocabPath)
	if err != nil {
		return fmt.Errorf("load vocab: %w", err)
	}
	e.tokenizer = tokenizer

	inputs, outputs, err := ort.GetInputOutputInfo(e.modelPath)
	if err != nil {
		return fmt.Errorf("onnx get input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("onnx model has no inputs or outputs")
	}

	outputShape := outputs[0].Dimensions
	if len(outputShape) != 3 || outputShape[2] <= 0 {
		return fmt.Errorf("unexpected encoder output shape %v", outputShape)
	}
	e.hidden = int(outputShape[2])

	// Encoder inputs (ids, mask, token types) all share the [1, seq] shape;
	// dynamic dims in the model are pinned to the configured window.
	inputShape := ort.NewShape(1, int64(e.maxSeqLen))
	e.inputs = make(map[string]*ort.Tensor[int64], len(inputs))
	inputNames := make([]string, len(inputs))
	inputValues := make([]ort.Value, len(inputs))
	for i, info := range inputs {
		tensor, tensorErr := ort.NewEmptyTensor[int64](inputShape)
		if tensorErr != nil {
			e.destroyTensorsLocked()
			return fmt.Errorf("onnx new input tensor %q: %w", info.Name, tensorErr)
		}
		e.inputs[info.Name] = tensor
		inputNames[i] = info.Name
		inputValues[i] = tensor
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.maxSeqLen), int64(e.hidden)))
	if err != nil {
		e.destroyTensorsLocked()
		return fmt.Errorf("onnx new output tensor: %w", err)
	}
	e.output = outputTensor

	session, err := ort.NewAdvancedSession(e.modelPath, inputNames, []string{outputs[0].Name},
		inputValues, []ort.Value{e.output}, nil)
	if err != nil {
		e.destroyTensorsLocked()
		return fmt.Errorf("onnx new session: %w", err)
	}
	e.session = session
	e.inited = true
	return nil
}

func (e *Embedder) destroyTensorsLocked() {
	for _, t := range e.inputs {
		t.Destroy()
	}
	e.inputs = nil
	if e.output != nil {
		e.output.Destroy()
		e.output = nil
	}
}

// Embed tokenizes text, runs the encoder, mean-pools the token states over
// the attention mask, and returns the unit-normalized sentence vector.
// Deterministic for identical input.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.initOnce(); err != nil {
		return nil, err
	}

	ids, mask := e.tokenizer.Encode(text, e.maxSeqLen)

	e.mu.Lock()
	for name, tensor := range e.inputs {
		data := tensor.GetData()
		switch {
		case strings.Contains(name, "mask"):
			copy(data, mask)
		case strings.Contains(name, "type"):
			for i := range data {
				data[i] = 0
			}
		default:
			copy(data, ids)
		}
	}
	err := e.session.Run()
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	pooled := meanPool(e.output.GetData(), mask, e.maxSeqLen, e.hidden)
	e.mu.Unlock()

	return unitNorm(pooled), nil
}

// meanPool averages the hidden states of the non-padding positions.
func meanPool(states []float32, mask []int64, seqLen, hidden int) []float32 {
	out := make([]float32, hidden)
	var count float32
	for pos := 0; pos < seqLen && pos < len(mask); pos++ {
		if mask[pos] == 0 {
			continue
		}
		base := pos * hidden
		if base+hidden > len(states) {
			break
		}
		for j := 0; j < hidden; j++ {
			out[j] += states[base+j]
		}
		count++
	}
	if count > 0 {
		for j := range out {
			out[j] /= count
		}
	}
	return out
}

func unitNorm(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(float64(sum)))
	for i := range v {
		v[i] /= norm
	}
	return v
}
