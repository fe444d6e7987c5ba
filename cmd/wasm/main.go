//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/classify"
	"github.com/himanishpuri/beatforge/pkg/beatforge/features"
	"github.com/himanishpuri/beatforge/pkg/beatforge/onset"
)

// Error codes returned to JavaScript.
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorOnsetDetection
)

// analyzeOnsets runs onset detection, feature extraction and classification
// over a raw mono sample array supplied from a browser AudioContext, without
// touching the filesystem or run store (those stay server-side). It returns
// {error: number, data: array | string}.
func analyzeOnsets(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 arguments: samplesArray, sampleRate")
	}

	samplesJS := args[0]
	sampleRateJS := args[1]

	if samplesJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "samplesArray must be an Array or Float64Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}

	sampleRate := sampleRateJS.Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}

	length := samplesJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "samplesArray is empty")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		val := samplesJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("samplesArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}

	onsets, err := onset.Detect(samples, sampleRate)
	if err != nil {
		return makeErrorResponse(ErrorOnsetDetection, err.Error())
	}

	classifier := classify.NewHeuristic(nil)
	eventArray := js.Global().Get("Array").New()
	for i, on := range onsets {
		fv := features.Extract(samples, sampleRate, on.TimestampMs, on.PeakAmplitude)
		class, confidence, _ := classifier.Classify(fv)

		obj := js.Global().Get("Object").New()
		obj.Set("id", beatforge.NewEventID(i, on.TimestampMs, class))
		obj.Set("timestampMs", on.TimestampMs)
		obj.Set("class", class.String())
		obj.Set("confidence", confidence)
		eventArray.SetIndex(i, obj)
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", eventArray)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "beatforge WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("analyzeOnsets", js.FuncOf(analyzeOnsets))

	if !console.IsUndefined() {
		console.Call("log", "analyzeOnsets function registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "window object is undefined")
	}

	if !console.IsUndefined() {
		console.Call("log", "beatforge WASM module loaded and ready")
	}

	<-done
}
