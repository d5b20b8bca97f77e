package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Default tensor names for a GeoCLIP image encoder exported with the
// standard transformers toolchain.
const (
	defaultInputName  = "pixel_values"
	defaultOutputName = "image_embeds"
)

// ONNXConfig locates the exported GeoCLIP image encoder and its gallery.
type ONNXConfig struct {
	ModelPath   string // image encoder .onnx
	GalleryPath string // binary gallery, see Gallery
	LibraryPath string // onnxruntime shared library; empty uses the loader default
	TopK        int
	InputName   string // defaults to "pixel_values"
	OutputName  string // defaults to "image_embeds"
	Logger      *slog.Logger
}

// ONNX runs the GeoCLIP image encoder in-process and scores embeddings
// against the gallery. Not safe for concurrent use: the session reuses
// one input/output tensor pair.
type ONNX struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	gallery *Gallery
	topK    int
	logger  *slog.Logger
}

// The onnxruntime environment is process-global; initialize it once and
// leave it up for the life of the process.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(libPath string) error {
	ortInitOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// NewONNX loads the gallery, initializes the runtime, and opens an
// inference session for the image encoder.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx: model path is required")
	}
	if cfg.GalleryPath == "" {
		return nil, fmt.Errorf("onnx: gallery path is required")
	}
	topK := cfg.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 1 {
		return nil, fmt.Errorf("onnx: top-k must be at least 1, got %d", topK)
	}
	inputName := cfg.InputName
	if inputName == "" {
		inputName = defaultInputName
	}
	outputName := cfg.OutputName
	if outputName == "" {
		outputName = defaultOutputName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gallery, err := LoadGallery(cfg.GalleryPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: %w", err)
	}

	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, inputSize, inputSize))
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(gallery.Dim())))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnx: open session: %w", err)
	}

	logger.Info("encoder session open",
		"model", cfg.ModelPath, "gallery_size", gallery.Len(), "dim", gallery.Dim())

	return &ONNX{
		session: session,
		input:   input,
		output:  output,
		gallery: gallery,
		topK:    topK,
		logger:  logger,
	}, nil
}

// Name identifies the backend for logs and reports.
func (o *ONNX) Name() string { return "onnx" }

// Predict encodes the image at path and returns the gallery's top-k
// candidates for its embedding.
func (o *ONNX) Predict(ctx context.Context, path string) (*Prediction, error) {
	pixels, err := preprocessImage(path)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	copy(o.input.GetData(), pixels)
	if err := o.session.Run(); err != nil {
		return nil, fmt.Errorf("predict: run encoder: %w", err)
	}

	embed := make([]float32, o.gallery.Dim())
	copy(embed, o.output.GetData())
	normalize(embed)

	cands, err := o.gallery.TopK(embed, o.topK)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return &Prediction{Candidates: cands}, nil
}

// Close releases the session and tensors. The runtime environment stays
// up; it is shared process-wide.
func (o *ONNX) Close() error {
	var errs []error
	if o.session != nil {
		errs = append(errs, o.session.Destroy())
		o.session = nil
	}
	if o.input != nil {
		errs = append(errs, o.input.Destroy())
		o.input = nil
	}
	if o.output != nil {
		errs = append(errs, o.output.Destroy())
		o.output = nil
	}
	return errors.Join(errs...)
}
