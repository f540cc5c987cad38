// tflite.go: person detection via a TensorFlow Lite SSD-style model.
package detect

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/conf"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
)

// personClassID is the class index of "person" in single-class top-view
// detection models.
const personClassID = 0

// TFLiteDetector runs a TFLite detection model with postprocessed outputs
// (boxes, classes, scores, count). The interpreter is not reentrant, a lock
// serializes batches.
type TFLiteDetector struct {
	interpreter *tflite.Interpreter
	model       *tflite.Model

	mu         sync.Mutex
	confidence float64
	closed     bool
}

// NewTFLiteDetector loads the model and allocates the interpreter. A missing
// or unloadable model is an unrecoverable startup failure for the caller.
func NewTFLiteDetector(settings *conf.DetectorSettings) (*TFLiteDetector, error) {
	start := time.Now()

	modelData, err := os.ReadFile(settings.ModelPath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to read detection model: %w", err)).
			Component("detect").
			Category(errors.CategoryModelLoad).
			Context("model_path", settings.ModelPath).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.Newf("cannot load TensorFlow Lite model").
			Component("detect").
			Category(errors.CategoryModelInit).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	threads := settings.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	options := tflite.NewInterpreterOptions()
	if settings.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))})
		if delegate == nil {
			GetLogger().Warn("Failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, errors.Newf("cannot create TFLite interpreter").
			Component("detect").
			Category(errors.CategoryModelInit).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		return nil, errors.Newf("tensor allocation failed: %v", status).
			Component("detect").
			Category(errors.CategoryModelInit).
			Build()
	}
	if n := interpreter.GetOutputTensorCount(); n < 4 {
		return nil, errors.Newf("model has %d output tensors, detection postprocess needs 4", n).
			Component("detect").
			Category(errors.CategoryModelInit).
			Context("model_path", settings.ModelPath).
			Build()
	}

	// model data has been copied into the interpreter
	runtime.GC()

	GetLogger().Info("detection model loaded",
		"model_path", settings.ModelPath,
		"threads", threads,
		"load_ms", time.Since(start).Milliseconds())

	return &TFLiteDetector{
		interpreter: interpreter,
		model:       model,
		confidence:  settings.Confidence,
	}, nil
}

// SetConfidence updates the confidence threshold for later batches.
func (d *TFLiteDetector) SetConfidence(conf float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if conf < 0 || conf > 1 {
		GetLogger().Warn("ignoring out of range confidence", "conf", conf)
		return
	}
	d.confidence = conf
}

// Confidence returns the current confidence threshold.
func (d *TFLiteDetector) Confidence() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.confidence
}

// Detect runs the model over each image in order.
func (d *TFLiteDetector) Detect(ctx context.Context, images []*image.RGBA) ([]Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.Newf("detector is closed").
			Component("detect").
			Category(errors.CategoryState).
			Build()
	}

	results := make([]Result, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := d.detectOne(img)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// detectOne fills the input tensor, invokes the interpreter and parses the
// postprocessed detection outputs.
func (d *TFLiteDetector) detectOne(img *image.RGBA) (Result, error) {
	inputTensor := d.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return Result{}, errors.Newf("cannot get input tensor").
			Component("detect").
			Category(errors.CategoryDetection).
			Build()
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	fillInputTensor(inputTensor, img)

	if status := d.interpreter.Invoke(); status != tflite.OK {
		return Result{}, errors.Newf("tensor invoke failed: %v", status).
			Component("detect").
			Category(errors.CategoryDetection).
			Build()
	}

	// standard detection postprocess layout:
	// 0: boxes [1,N,4] (ymin,xmin,ymax,xmax, normalized)
	// 1: classes [1,N]
	// 2: scores [1,N]
	// 3: valid detection count [1]
	boxesTensor := d.interpreter.GetOutputTensor(0)
	classesTensor := d.interpreter.GetOutputTensor(1)
	scoresTensor := d.interpreter.GetOutputTensor(2)
	if boxesTensor == nil || classesTensor == nil || scoresTensor == nil {
		return Result{}, errors.Newf("model lacks the detection postprocess outputs").
			Component("detect").
			Category(errors.CategoryDetection).
			Build()
	}
	return parseDetections(
		boxesTensor.Float32s(),
		classesTensor.Float32s(),
		scoresTensor.Float32s(),
		w, h, d.confidence,
	), nil
}

// parseDetections filters the raw postprocess outputs down to person boxes
// above the confidence threshold, scaled to pixel coordinates.
func parseDetections(boxes, classes, scores []float32, w, h int, confidence float64) Result {
	var result Result
	for i := range scores {
		if float64(scores[i]) < confidence {
			continue
		}
		if i >= len(classes) || int(classes[i]) != personClassID {
			continue
		}
		if i*4+3 >= len(boxes) {
			break
		}
		rect := image.Rect(
			int(boxes[i*4+1]*float32(w)),
			int(boxes[i*4]*float32(h)),
			int(boxes[i*4+3]*float32(w)),
			int(boxes[i*4+2]*float32(h)),
		)
		result.Boxes = append(result.Boxes, rect)
		result.Count++
	}
	return result
}

// fillInputTensor converts RGBA pixels into the model input layout, uint8
// RGB for quantized models and normalized float32 RGB otherwise.
func fillInputTensor(tensor *tflite.Tensor, img *image.RGBA) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if tensor.Type() == tflite.UInt8 {
		data := tensor.UInt8s()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				src := img.PixOffset(x, y)
				dst := (y*w + x) * 3
				if dst+2 >= len(data) {
					return
				}
				data[dst] = img.Pix[src]
				data[dst+1] = img.Pix[src+1]
				data[dst+2] = img.Pix[src+2]
			}
		}
		return
	}

	data := tensor.Float32s()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := img.PixOffset(x, y)
			dst := (y*w + x) * 3
			if dst+2 >= len(data) {
				return
			}
			data[dst] = float32(img.Pix[src]) / 255
			data[dst+1] = float32(img.Pix[src+1]) / 255
			data[dst+2] = float32(img.Pix[src+2]) / 255
		}
	}
}

// Close releases the interpreter and model. Idempotent.
func (d *TFLiteDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.interpreter.Delete()
	d.model.Delete()
}
