// Copyright 2023 GreyXor. All rights reserved.
// Mount of this source code is governed by a MIT license that can be found
// at https://gitlab.com/greyxor/slogor/-/blob/main/LICENSE?ref_type=heads.

package ansi

import (
	"os"

	"golang.org/x/sys/windows"
)

// init enables virtual terminal processing on the standard error console so that escape codes
// render as colors.
func init() {
	stderr := windows.Handle(os.Stderr.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(stderr, &mode); err != nil {
		return
	}

	// See https://learn.microsoft.com/en-us/windows/console/setconsolemode
	_ = windows.SetConsoleMode(stderr, mode|windows.ENABLE_PROCESSED_OUTPUT|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}
