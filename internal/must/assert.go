package must

import (
	"fmt"
	"log/slog"
	"os"
)

func Assert(cond bool, failMessage string) {
	if !cond {
		slog.Error(failMessage)
		os.Exit(1)
	}
}

func NoError(err error, message string) {
	if err != nil {
		Assert(false, fmt.Sprintf("%s: %s", message, err.Error()))
	}
}
