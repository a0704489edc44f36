package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// 测试时替换为 buffer
var out io.Writer = os.Stdout

func PrintError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func PrintSuccess(format string, args ...interface{}) {
	fmt.Fprintf(out, "✅ "+format+"\n", args...)
}

func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintf(out, "⚠️  "+format+"\n", args...)
}

func PrintInfo(format string, args ...interface{}) {
	fmt.Fprintf(out, format+"\n", args...)
}

func PrintHeader(title string) {
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("=", len(title)))
}
