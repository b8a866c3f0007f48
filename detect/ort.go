package detect

import (
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInit    sync.Once
	ortInitErr error
)

// initOnnxRuntime initializes the shared ONNX Runtime environment once per
// process. The library path can be overridden with
// ONNXRUNTIME_SHARED_LIBRARY_PATH.
func initOnnxRuntime() error {
	ortInit.Do(func() {
		if ort.IsInitialized() {
			return
		}
		ort.SetSharedLibraryPath(sharedLibPath())
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// sharedLibPath returns the path to the onnxruntime shared library for the
// current platform.
func sharedLibPath() string {
	if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		return "third_party/libonnxruntime.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
