package interpreter

import (
	"os"
	"os/signal"
	"syscall"
)

// InstallSignalHandler converts SIGINT/SIGTERM into a message-annotated
// termination (spec.md §5, §7 kind (f)): the handler prints the currently
// active debug-info message and exits non-zero. SIGFPE/SIGSEGV have no
// catchable Go analogue; arithmetic misuse is already recovered locally
// with fallback values (spec.md §7 kind (e)) and a hard runtime fault
// surfaces as a Go panic through Run's recover. The returned function
// uninstalls the handler.
func (in *Interpreter) InstallSignalHandler() func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			msg := in.DebugMessage()
			if msg == "" {
				msg = "no active debug info"
			}
			in.logger.WithField("signal", sig.String()).Error(msg)
			os.Exit(2)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
