// sdk.go: librealsense-backed provider entry point.
package realsense

import (
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
)

// newSDKProvider returns the provider backed by the RealSense SDK. The
// binding is a cgo build of librealsense2 supplied on camera hosts; this
// build does not carry it.
func newSDKProvider() (Provider, error) {
	return nil, errors.Newf("this build has no RealSense SDK support, enable hub.capture.simulate or use an SDK-enabled build").
		Component("realsense").
		Category(errors.CategoryDevice).
		Build()
}
