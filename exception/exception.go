package exception

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/monitoring"
)

// SafeGo runs fn on a goroutine that recovers, counts and logs panics
// instead of crashing the process.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("EXCEPTION", fmt.Sprintf("panic in %s: %v\n%s", name, r, debug.Stack()))
			}
		}()
		fn()
	}()
}

// SafeGoWithPanic recovers and logs like SafeGo but exits the process, for
// goroutines whose failure leaves the node in an unrecoverable state.
func SafeGoWithPanic(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("EXCEPTION", fmt.Sprintf("panic in %s: %v\n%s", name, r, debug.Stack()))
				os.Exit(1)
			}
		}()
		fn()
	}()
}
