// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package timing wraps a phase with start/stop progress messages, the same
// bracketing pattern the original tool's Wallclock helper used around each
// stage of the driver.
package timing

import (
	"time"

	"github.com/cpmech/gosl/io"
)

// Phase runs fn, printing a start banner and an elapsed-time banner on
// completion. Verbose silences both banners when false.
func Phase(verbose bool, label string, fn func()) {
	if !verbose {
		fn()
		return
	}
	io.Pf("[t] %s... ", label)
	t0 := time.Now()
	fn()
	io.PfGreen("done (%v)\n", time.Since(t0))
}
